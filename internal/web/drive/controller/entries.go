package controller

import (
	"io"
	"net/http"
	"strconv"

	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-drive/internal/web/drive/dto"
)

const (
	archiveFileName    = "download.zip"
	archiveContentType = "application/zip"
)

func (t *Type) ListEntries(c *gin.Context) {
	uid, err := currentUserID(c)
	if err != nil {
		respondErr(c, err)
		return
	}

	parentID, err := optionalIDParam(c.Query("parent_id"))
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	items, err := t.reader.ListChildren(c, uid, parentID)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, items)
}

func (t *Type) CreateDirectory(c *gin.Context) {
	uid, err := currentUserID(c)
	if err != nil {
		respondErr(c, err)
		return
	}

	req := new(dto.CreateDirectoryRequest)
	if err := c.ShouldBindJSON(req); err != nil {
		respondBadRequest(c, err)
		return
	}

	var parentID *uint64
	if req.ParentID != nil {
		id := req.ParentID.Uint64()
		parentID = &id
	}

	if err := t.writer.CreateDirectory(c, uid, parentID, req.Name); err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, nil)
}

func (t *Type) RenameEntry(c *gin.Context) {
	uid, err := currentUserID(c)
	if err != nil {
		respondErr(c, err)
		return
	}

	entryID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	req := new(dto.RenameRequest)
	if err := c.ShouldBindJSON(req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := t.writer.Rename(c, uid, entryID, req.NewName); err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, nil)
}

func (t *Type) DeleteEntries(c *gin.Context) {
	uid, err := currentUserID(c)
	if err != nil {
		respondErr(c, err)
		return
	}

	req := new(dto.DeleteRequest)
	if err := c.ShouldBindJSON(req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := t.writer.Delete(c, uid, dto.UnwrapIDs(req.IDs)); err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, nil)
}

func (t *Type) UploadFile(c *gin.Context) {
	uid, err := currentUserID(c)
	if err != nil {
		respondErr(c, err)
		return
	}

	parentID, err := optionalIDParam(c.PostForm("directory_id"))
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondErr(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := t.transporter.Upload(c,
		uid, parentID, fileHeader.Filename, file, fileHeader.Size, contentType,
	); err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, nil)
}

func (t *Type) DownloadArchive(c *gin.Context) {
	uid, err := currentUserID(c)
	if err != nil {
		respondErr(c, err)
		return
	}

	req := new(dto.DownloadRequest)
	if err := c.ShouldBindJSON(req); err != nil {
		respondBadRequest(c, err)
		return
	}

	archive, err := t.transporter.DownloadArchive(c, uid, dto.UnwrapIDs(req.IDs))
	if err != nil {
		respondErr(c, err)
		return
	}
	defer archive.Close() //nolint:errcheck

	c.Header("Content-Type", archiveContentType)
	c.Header("Content-Disposition", `attachment; filename=`+archiveFileName)
	c.Status(http.StatusOK)

	// the status line is already on the wire; a mid-stream failure can
	// only be logged and the connection cut short
	if _, err := io.Copy(c.Writer, archive); err != nil {
		gmw.GetLogger(c).Error("stream archive",
			zap.Error(err),
			zap.Uint64("user", uid))
		c.Abort()
	}
}

func (t *Type) FileURL(c *gin.Context) {
	uid, err := currentUserID(c)
	if err != nil {
		respondErr(c, err)
		return
	}

	entryID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	signed, err := t.transporter.PresignedFileURL(c, uid, entryID)
	if err != nil {
		respondErr(c, err)
		return
	}

	respondOK(c, gin.H{"url": signed})
}

// optionalIDParam parses an optional entry id that the boundary may
// send as an empty string, a number, or a numeric string.
func optionalIDParam(raw string) (*uint64, error) {
	if raw == "" || raw == "null" {
		return nil, nil
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, err
	}

	return &id, nil
}
