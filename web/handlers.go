package web

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"html/template"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/YuminosukeSato/houseprice/dataset"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
	"github.com/YuminosukeSato/houseprice/regressor"
	"github.com/YuminosukeSato/houseprice/visualize"
)

// uploadField is the multipart field holding the CSV file.
const uploadField = "file"

// pageData is passed to the layout and page templates.
type pageData struct {
	Page      string
	RequestID string
	Error     *failure
	Predict   *predictView
}

// predictView is everything the prediction page shows after an upload.
type predictView struct {
	FileName    string
	Uploaded    *visualize.Table
	Predictions *visualize.Table
	Histogram   template.URL
	CSV         template.URL
	Result      *regressor.Result
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := r.URL.Query().Get("page")
	if page != PagePredict {
		page = PageInfo
	}
	s.render(w, r, http.StatusOK, &pageData{Page: page})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePredictPage runs the upload flow and renders the prediction page,
// with the error shown on the page when any step fails.
func (s *Server) handlePredictPage(w http.ResponseWriter, r *http.Request) {
	data := &pageData{Page: PagePredict}

	table, name, err := s.readUpload(w, r)
	if err != nil {
		s.renderFailure(w, r, data, err)
		return
	}
	// 予測に失敗してもアップロードした表は表示する
	data.Predict = &predictView{
		FileName: name,
		Uploaded: visualize.DatasetTable(table, s.cfg.MaxDisplayRows),
	}
	result, err := s.predict(r, table, name)
	if err != nil {
		s.renderFailure(w, r, data, err)
		return
	}

	data.Predict.Predictions = visualize.PredictionTable(result, s.cfg.MaxDisplayRows)
	data.Predict.Result = result
	if png, err := visualize.Histogram(result.Values, visualize.WithBins(s.cfg.HistogramBins)); err != nil {
		s.logger.Warn("histogram not rendered",
			log.RequestIDKey, RequestIDFrom(r.Context()),
			log.OperationKey, log.OperationRender,
			log.ErrorKey, err.Error())
	} else {
		data.Predict.Histogram = template.URL(visualize.DataURI(png))
	}
	if csvData, err := visualize.PredictionsCSV(result); err == nil {
		data.Predict.CSV = template.URL("data:text/csv;base64," + base64.StdEncoding.EncodeToString(csvData))
	}
	s.render(w, r, http.StatusOK, data)
}

// predictResponse is the body of a successful API prediction.
type predictResponse struct {
	RequestID string `json:"request_id"`
	Rows      int    `json:"rows"`
	*regressor.Result
}

// handlePredictAPI accepts either a multipart upload or a raw text/csv body.
func (s *Server) handlePredictAPI(w http.ResponseWriter, r *http.Request) {
	var (
		table *dataset.Table
		name  string
		err   error
	)
	if mediaType(r) == "text/csv" {
		table, err = s.readBody(w, r)
		name = "body.csv"
	} else {
		table, name, err = s.readUpload(w, r)
	}
	if err != nil {
		s.writeFailureJSON(w, r, err)
		return
	}
	result, err := s.predict(r, table, name)
	if err != nil {
		s.writeFailureJSON(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, predictResponse{
		RequestID: RequestIDFrom(r.Context()),
		Rows:      result.NumRows(),
		Result:    result,
	})
}

func (s *Server) predict(r *http.Request, table *dataset.Table, name string) (*regressor.Result, error) {
	s.logger.Debug("predicting upload",
		log.RequestIDKey, RequestIDFrom(r.Context()),
		log.FileNameKey, name,
		log.SamplesKey, table.NumRows(),
		log.FeaturesKey, table.NumCols())
	return s.predictor.Predict(r.Context(), table)
}

// readUpload extracts the single CSV file from a multipart form.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*dataset.Table, string, error) {
	if err := s.limitBody(w, r); err != nil {
		return nil, "", err
	}
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, "", err
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, "", errNoFile
		}
		return nil, "", errors.WithStack(&errors.ParseError{Reason: "malformed multipart form: " + err.Error()})
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, "", errNoFile
	}
	defer file.Close()

	if !isCSV(header.Filename, header.Header.Get("Content-Type")) {
		return nil, "", errNotCSV
	}
	table, err := dataset.ReadCSV(file, s.csvOptions()...)
	if err != nil {
		return nil, "", err
	}
	return table, header.Filename, nil
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) (*dataset.Table, error) {
	if err := s.limitBody(w, r); err != nil {
		return nil, err
	}
	return dataset.ReadCSV(r.Body, s.csvOptions()...)
}

func (s *Server) csvOptions() []dataset.Option {
	return []dataset.Option{dataset.WithMaxRows(s.cfg.MaxRows), dataset.WithTextColumns(s.cfg.IDColumn)}
}

// limitBody rejects a declared oversize body up front and caps the rest.
func (s *Server) limitBody(w http.ResponseWriter, r *http.Request) error {
	if r.ContentLength > s.cfg.MaxUploadBytes {
		return errors.WithStack(&http.MaxBytesError{Limit: s.cfg.MaxUploadBytes})
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	return nil
}

func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

// isCSV accepts a .csv file name or a csv content type.
func isCSV(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		return true
	}
	mt, _, _ := mime.ParseMediaType(contentType)
	return mt == "text/csv" || mt == "application/csv"
}

func (s *Server) fail(r *http.Request, err error) *failure {
	f := classify(err, s.cfg.MaxUploadBytes)
	fields := []any{
		log.RequestIDKey, RequestIDFrom(r.Context()),
		log.PathKey, r.URL.Path,
		log.StatusKey, f.Status,
		log.ErrorCodeKey, f.Code,
	}
	if f.report {
		s.logger.Error("prediction failed", append([]any{err}, fields...)...)
		s.reporter.Report(r.Context(), err, map[string]string{
			"request_id": RequestIDFrom(r.Context()),
			"code":       f.Code,
		})
	} else {
		s.logger.Warn("prediction rejected", append(fields, log.ErrorKey, err.Error())...)
	}
	return f
}

func (s *Server) renderFailure(w http.ResponseWriter, r *http.Request, data *pageData, err error) {
	data.Error = s.fail(r, err)
	s.render(w, r, data.Error.Status, data)
}

func (s *Server) renderRateLimited(w http.ResponseWriter, r *http.Request) {
	s.renderFailure(w, r, &pageData{Page: PagePredict}, errRateLimited)
}

func (s *Server) writeFailureJSON(w http.ResponseWriter, r *http.Request, err error) {
	f := s.fail(r, err)
	writeJSON(w, f.Status, map[string]any{
		"request_id": RequestIDFrom(r.Context()),
		"error":      f,
	})
}

func (s *Server) writeRateLimitedJSON(w http.ResponseWriter, r *http.Request) {
	s.writeFailureJSON(w, r, errRateLimited)
}

// render executes the page into a buffer so a template failure still yields
// a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data *pageData) {
	data.RequestID = RequestIDFrom(r.Context())

	var buf bytes.Buffer
	if err := s.pages[data.Page].ExecuteTemplate(&buf, "layout.html", data); err != nil {
		s.logger.Error("template execution failed", errors.Wrap(err, "render "+data.Page),
			log.RequestIDKey, data.RequestID,
			log.PageKey, data.Page,
			log.ErrorCodeKey, log.ErrorInternal)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.Copy(w, &buf)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
