package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"datacopilot/internal/bootstrap"
	"datacopilot/internal/transport/http/response"
)

// DatasetHandler owns dataset replacement and inspection. Uploads replace
// the dataset wholesale: the mirror table is dropped and rebuilt and the
// agents are reset against the new schema.
type DatasetHandler struct {
	app *bootstrap.App
}

func NewDatasetHandler(app *bootstrap.App) *DatasetHandler {
	return &DatasetHandler{app: app}
}

func (h *DatasetHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file upload")
		return
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".csv") {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file must be a CSV file")
		return
	}

	uploadDir := h.app.Config.Dataset.UploadDir
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "prepare upload directory failed")
		return
	}

	dest := filepath.Join(uploadDir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, dest); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "save uploaded file failed")
		return
	}

	records, err := h.app.ReloadDataset(c.Request.Context(), dest)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "process uploaded file failed")
		return
	}

	response.OK(c, gin.H{
		"message":        fmt.Sprintf("Successfully uploaded %s", file.Filename),
		"records_loaded": records,
	})
}

func (h *DatasetHandler) Info(c *gin.Context) {
	frame := h.app.Store.Frame()
	if frame == nil {
		response.Error(c, http.StatusServiceUnavailable, response.CodeNotInitialized, "dataset not initialized")
		return
	}

	columns := make([]gin.H, len(frame.Columns))
	for i, col := range frame.Columns {
		columns[i] = gin.H{"name": col.Name, "kind": col.Kind.String()}
	}

	response.OK(c, gin.H{
		"table":         h.app.Store.TableName(),
		"columns":       columns,
		"row_count":     frame.RowCount(),
		"source":        h.app.Store.CSVPath(),
		"database_path": h.app.Config.Database.Path,
	})
}

func (h *DatasetHandler) ResetAgents(c *gin.Context) {
	h.app.ResetAgents()
	response.OK(c, gin.H{
		"message": "agents successfully reset and reinitialized",
	})
}
