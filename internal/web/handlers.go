package web

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/adifgen/internal/adif"
	"github.com/JonMunkholm/adifgen/internal/core"
	"github.com/JonMunkholm/adifgen/internal/logging"
	"github.com/JonMunkholm/adifgen/internal/web/middleware"
)

var (
	errNoFile       = errors.New("no file provided")
	errFileTooLarge = errors.New("file too large")
	errBadForm      = errors.New("invalid upload form")
)

// Multipart form fields.
const (
	fieldStationCall  = "activator_call"
	fieldOperator     = "operator"
	fieldMyLocation   = "my_qth"
	fieldMyReference  = "references"
	fieldHisReference = "his_qth"
	fieldLog          = "filename"
	fieldCharset      = "encoding"
)

// multipartMemory is how much of a form is held in memory before spilling
// file parts to disk.
const multipartMemory = 4 << 20

// formOverhead is the body allowance for text fields and multipart framing
// on top of the file size limit.
const formOverhead = 1 << 20

// checkResponse is the JSON body of both endpoints when a result exists.
// Cause is set when the batch was refused as a whole.
type checkResponse struct {
	core.BatchResult
	Cause *ErrorResponse `json:"cause,omitempty"`
}

func newCheckResponse(res core.BatchResult, cause error) checkResponse {
	resp := checkResponse{BatchResult: res}
	if cause != nil {
		resp.Cause = newErrorResponse(cause)
	}
	return resp
}

// handleCheck converts the upload and returns the records as JSON.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.convert(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// handleGenerate converts the upload and returns an ADIF attachment.
// A refused batch is answered with 422 and the same JSON as handleCheck.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.convert(w, r)
	if !ok {
		return
	}
	if resp.Status != core.StatusOK {
		writeJSON(w, r, http.StatusUnprocessableEntity, resp)
		return
	}
	res := resp.BatchResult

	var buf bytes.Buffer
	if err := adif.Encode(&buf, res, s.cfg.ADIF.ProgramID); err != nil {
		s.respondError(w, r, fmt.Errorf("encode adif: %w", err))
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", adif.FileName(res)))
	h.Set("X-Conversion-Id", res.ID)
	h.Set("X-Failed-Rows", strconv.Itoa(len(res.Failures)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logging.FromContext(r.Context()).Warn("write adif response", "error", err)
	}
}

// convert reads the form and runs the conversion. When ok is false an error
// response has already been written. A refused batch comes back as its NG
// result with the cause in Cause.
func (s *Server) convert(w http.ResponseWriter, r *http.Request) (checkResponse, bool) {
	req, file, err := s.readConvertRequest(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return checkResponse{}, false
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	ctx := core.WithClient(r.Context(), core.ClientInfo{
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	})

	res, err := s.service.Convert(ctx, req)
	if res.Status == "" {
		s.respondError(w, r, err)
		return checkResponse{}, false
	}

	logging.WithFields(r.Context(), "conversion_id", res.ID).Info("conversion finished",
		"station", req.Context.StationCall,
		"status", res.Status,
		"records", len(res.Records),
		"failures", len(res.Failures),
	)
	return newCheckResponse(res, err), true
}

// readConvertRequest parses the multipart upload. The caller closes the
// returned file.
func (s *Server) readConvertRequest(w http.ResponseWriter, r *http.Request) (core.ConvertRequest, multipart.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+formOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return core.ConvertRequest{}, nil, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, s.cfg.Upload.MaxFileSize)
		}
		return core.ConvertRequest{}, nil, fmt.Errorf("%w: %v", errBadForm, err)
	}

	file, header, err := r.FormFile(fieldLog)
	if err != nil {
		return core.ConvertRequest{}, nil, errNoFile
	}
	if header.Size > s.cfg.Upload.MaxFileSize {
		file.Close()
		return core.ConvertRequest{}, nil, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, s.cfg.Upload.MaxFileSize)
	}

	req := core.ConvertRequest{
		Context: core.RequestContext{
			StationCall:  r.FormValue(fieldStationCall),
			Operator:     r.FormValue(fieldOperator),
			MyReference:  r.FormValue(fieldMyReference),
			HisReference: r.FormValue(fieldHisReference),
			MyLocation:   r.FormValue(fieldMyLocation),
		},
		Log:      file,
		Charset:  r.FormValue(fieldCharset),
		FileName: header.Filename,
	}
	return req, file, nil
}

// healthResponse reports liveness and conversion slot usage.
type healthResponse struct {
	Status      string             `json:"status"`
	Conversions core.LimiterStatus `json:"conversions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, healthResponse{
		Status:      "ok",
		Conversions: s.service.LimiterStatus(),
	})
}
