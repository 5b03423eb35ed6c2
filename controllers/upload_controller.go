package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/cppla/blogpress/config"
	"github.com/cppla/blogpress/middleware"
	"github.com/cppla/blogpress/storage"
	"github.com/cppla/blogpress/utils"
)

// multipartSlack leaves room for boundaries and part headers around the file.
const multipartSlack = 64 << 10

// UploadController streams images to the configured object store.
type UploadController struct {
	store storage.ObjectStore
	now   func() time.Time
}

// NewUploadController creates an UploadController writing to store.
func NewUploadController(store storage.ObjectStore) *UploadController {
	return &UploadController{store: store, now: time.Now}
}

// Upload accepts a multipart "file", checks size and sniffed type, and stores it
// under <unix-millis><filename>.
func (u *UploadController) Upload(ctx *gin.Context) {
	cfg := config.Get()
	tooLarge := utils.NewAppError(http.StatusRequestEntityTooLarge, 41301,
		fmt.Sprintf("Could not upload image (File must be less than %s)", humanSize(cfg.UploadMaxSize)))

	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, cfg.UploadMaxSize+multipartSlack)
	header, err := ctx.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			utils.Fail(ctx, tooLarge)
			return
		}
		badRequest(ctx, 40030, "Please select an image")
		return
	}
	if header.Size > cfg.UploadMaxSize {
		utils.Fail(ctx, tooLarge)
		return
	}

	file, err := header.Open()
	if err != nil {
		badRequest(ctx, 40031, "cannot open uploaded file")
		return
	}
	defer file.Close()

	mt, err := mimetype.DetectReader(file)
	if err != nil {
		badRequest(ctx, 40032, "failed to detect file type")
		return
	}
	if !allowedType(mt, cfg.UploadAllowedTypes) {
		badRequest(ctx, 40033, "File type is not allowed")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		utils.Fail(ctx, err)
		return
	}

	key := storage.ObjectKey(u.now(), header.Filename)
	reqID := middleware.RequestID(ctx)
	obj, err := u.store.Upload(ctx.Request.Context(), key, file, header.Size, mt.String(), progressLogger(key, reqID))
	if err != nil {
		utils.Fail(ctx, utils.WrapAppError(http.StatusBadGateway, 50202, "Image upload failed", err))
		return
	}

	utils.Sugar.Infow("image uploaded", "key", obj.Key, "size", obj.Size, "user_id", middleware.CurrentUserID(ctx), "request_id", reqID)
	utils.Success(ctx, gin.H{"url": obj.URL, "key": obj.Key, "size": obj.Size})
}

func allowedType(mt *mimetype.MIME, allowed []string) bool {
	for _, a := range allowed {
		if mt.Is(strings.TrimSpace(a)) {
			return true
		}
	}
	return false
}

// progressLogger logs upload progress at debug level each time another quarter completes.
func progressLogger(key, reqID string) storage.ProgressFunc {
	lastStep := 0
	return func(p storage.Progress) {
		step := p.Percent() / 25
		if step <= lastStep {
			return
		}
		lastStep = step
		utils.Sugar.Debugw("upload progress", "key", key, "percent", step*25, "request_id", reqID)
	}
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%dMB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%dKB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
