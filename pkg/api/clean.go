// pkg/api/clean.go
package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/David-Botos/datawizard/pkg/analytics"
	"github.com/David-Botos/datawizard/pkg/cleaner"
	"github.com/David-Botos/datawizard/pkg/insights"
	"github.com/David-Botos/datawizard/pkg/model"
	"github.com/David-Botos/datawizard/pkg/report"
	"github.com/David-Botos/datawizard/pkg/session"
)

const (
	previewRows       = 5
	defaultUploadName = "upload.csv"
	multipartMemory   = 32 << 20
)

// CleanResponse is the JSON reply of POST /clean
type CleanResponse struct {
	SessionID       string                   `json:"session_id"`
	RunID           string                   `json:"run_id"`
	Source          string                   `json:"source"`
	DownloadName    string                   `json:"download_name"`
	Log             []string                 `json:"log"`
	RowsBefore      int                      `json:"rows_before"`
	RowsAfter       int                      `json:"rows_after"`
	RowsRemoved     int                      `json:"rows_removed"`
	Schema          *model.TableMetadata     `json:"schema"`
	OriginalPreview []map[string]interface{} `json:"original_preview"`
	CleanedPreview  []map[string]interface{} `json:"cleaned_preview"`
	Insights        *insights.Report         `json:"insights"`
	Outliers        *insights.Outliers       `json:"outliers,omitempty"`
	Warnings        []string                 `json:"warnings,omitempty"`
}

// downloadName is the attachment name of a cleaned upload
func downloadName(source string) string {
	return "cleaned_" + source
}

// cleanOptions overlays the query flags on the configured defaults
func (s *Server) cleanOptions(r *http.Request) (cleaner.Options, error) {
	opts := s.defaults
	q := r.URL.Query()

	flags := []struct {
		name   string
		target *bool
	}{
		{"handle_missing", &opts.HandleMissing},
		{"remove_duplicates", &opts.RemoveDuplicates},
		{"standardize_text", &opts.StandardizeText},
		{"fix_types", &opts.FixTypes},
	}
	for _, f := range flags {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := cast.ToBoolE(raw)
		if err != nil {
			return opts, fmt.Errorf("invalid value %q for %s", raw, f.name)
		}
		*f.target = v
	}
	return opts, nil
}

// readUpload returns the uploaded file name and bytes, from the multipart
// field "file" or from the raw body named by ?name=
func readUpload(r *http.Request) (string, []byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return "", nil, err
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, fmt.Errorf("missing upload field 'file': %w", err)
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		return path.Base(header.Filename), data, err
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = defaultUploadName
	}
	data, err := io.ReadAll(r.Body)
	return path.Base(name), data, err
}

func (s *Server) clean(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}

	handler := report.NewHandler(s.logger)
	defer func() { s.metrics.RecordErrors(handler.Records()) }()

	var (
		resp     *APIResponse
		download []byte
		name     string
	)

	_, err := s.withSession(w, r, func(state *session.State) error {
		opts, err := s.cleanOptions(r)
		if err != nil {
			resp = BadRequestResponse(err.Error())
			return nil
		}

		var data []byte
		name, data, err = readUpload(r)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				resp = TooLargeResponse(fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
				return nil
			}
			handler.HandleError(report.NewErrorRecord(err, report.ErrorCategoryInput).WithSource(name))
			resp = BadRequestResponse(fmt.Sprintf("Error reading upload: %v", err))
			return nil
		}
		s.metrics.TrackAction(state.ID, analytics.ActionFileUploaded)

		table, err := s.converter.ParseCSVBytes(data)
		if err != nil {
			handler.HandleError(report.NewErrorRecord(err, report.ErrorCategoryInput).WithSource(name))
			resp = BadRequestResponse(fmt.Sprintf("Error processing file: %v", err))
			return nil
		}

		result, err := s.cleaner.Clean(r.Context(), table, name, opts)
		if err != nil {
			return err
		}
		for _, record := range result.Recovered {
			handler.RecordError(record)
		}
		s.metrics.RecordFileProcessed(state.ID, table.NumRows(), len(result.Operations))

		if r.URL.Query().Get("format") == "csv" {
			download, err = s.converter.EncodeCSV(result.Cleaned)
			return err
		}

		out := &CleanResponse{
			SessionID:       state.ID,
			RunID:           result.RunID,
			Source:          name,
			DownloadName:    downloadName(name),
			Log:             result.Log(),
			RowsBefore:      table.NumRows(),
			RowsAfter:       result.Cleaned.NumRows(),
			RowsRemoved:     result.RowsRemoved,
			Schema:          result.Cleaned.Metadata(name),
			OriginalPreview: table.Head(previewRows).Records(),
			CleanedPreview:  result.Cleaned.Head(previewRows).Records(),
			Insights:        insights.Build(result.Cleaned, s.insights),
		}

		if column := r.URL.Query().Get("outlier_column"); column != "" {
			outliers, err := insights.DetectOutliers(result.Cleaned, column)
			if err != nil {
				handler.Warn(name, fmt.Sprintf("Outlier detection skipped: %v", err))
			} else {
				out.Outliers = outliers
			}
		}

		out.Warnings = handler.Warnings()
		resp = SuccessResponse("Data cleaning completed!", out)
		return nil
	})
	if err != nil {
		s.logger.Error("Cleaning failed", zap.String("source", name), zap.Error(err))
		respond(w, r, InternalErrorResponse(fmt.Sprintf("Error processing file: %v", err)))
		return
	}

	if download != nil {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition",
			mime.FormatMediaType("attachment", map[string]string{"filename": downloadName(name)}))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(download)
		return
	}

	respond(w, r, resp)
}
