package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/mellystark/visitormanagement/pkg/errors"
	"github.com/mellystark/visitormanagement/pkg/export"
	"github.com/mellystark/visitormanagement/pkg/response"
)

type exportFormat int

const (
	formatCSV exportFormat = iota
	formatXLSX
)

// writeTable renders table as an attachment. The body is buffered so a
// rendering failure still produces a JSON error instead of a truncated file.
func writeTable(c *gin.Context, table export.Table, err error, prefix string, format exportFormat) {
	if err != nil {
		response.Error(c, err)
		return
	}

	var (
		buf         bytes.Buffer
		ext         string
		contentType string
	)
	switch format {
	case formatXLSX:
		ext, contentType = "xlsx", export.ContentTypeXLSX
		err = export.WriteXLSX(&buf, table)
	default:
		ext, contentType = "csv", export.ContentTypeCSV
		err = export.WriteCSV(&buf, table)
	}
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}

	name := export.Filename(prefix, ext, time.Now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
