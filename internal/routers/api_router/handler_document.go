package api_router

import (
	"errors"
	"strconv"

	"github.com/nexdoc/doc-persist-service/internal/app"
	"github.com/nexdoc/doc-persist-service/internal/domain"
	"github.com/nexdoc/doc-persist-service/internal/service"
	pkgapp "github.com/nexdoc/doc-persist-service/pkg/app"
	"github.com/nexdoc/doc-persist-service/pkg/code"
	"github.com/nexdoc/doc-persist-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DocumentHandler 文档 API 路由处理器
type DocumentHandler struct {
	*Handler
}

// NewDocumentHandler 创建 DocumentHandler 实例
func NewDocumentHandler(a *app.App) *DocumentHandler {
	return &DocumentHandler{
		Handler: NewHandler(a),
	}
}

// listPageSize 列表每页条数，limit 参数兼容旧调用方，等价于 pageSize
func listPageSize(c *gin.Context) int {
	if limit, _ := strconv.Atoi(c.Query("limit")); limit > 0 {
		return limit
	}
	return pkgapp.GetPageSize(c)
}

// documentID 解析路径中的文档 ID
func documentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// DocumentCreateRequest 创建文档请求参数
type DocumentCreateRequest struct {
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content"`
	OwnerUID int64  `json:"ownerUid" binding:"required"`
}

// Create 创建文档
func (h *DocumentHandler) Create(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &DocumentCreateRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("DocumentHandler.Create.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()))
		return
	}

	doc, err := h.App.DocumentRepo.Create(c.Request.Context(), &domain.Document{
		Title:    params.Title,
		Content:  params.Content,
		OwnerUID: params.OwnerUID,
	})
	if err != nil {
		h.App.Logger().Error("DocumentHandler.Create err", zap.Error(err))
		response.ToResponse(code.ErrorDocumentCreateFailed.WithDetails(err.Error()))
		return
	}

	response.ToResponse(code.Success.WithData(doc))
}

// Get 获取文档
func (h *DocumentHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	id, ok := documentID(c)
	if !ok {
		response.ToResponse(code.ErrorInvalidParams)
		return
	}

	doc, err := h.App.DocumentRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.ToResponse(code.ErrorDocumentNotFound)
			return
		}
		h.App.Logger().Error("DocumentHandler.Get err",
			zap.Int64(logger.FieldDocumentID, id), zap.Error(err))
		response.ToResponse(code.ErrorDBQuery.WithDetails(err.Error()))
		return
	}

	response.ToResponse(code.Success.WithData(doc))
}

// DocumentSaveRequest 提交保存请求参数
type DocumentSaveRequest struct {
	UID       int64                   `json:"uid" binding:"required"`
	Content   string                  `json:"content"`
	Operation *service.OperationInput `json:"operation"`
}

// Save 提交保存请求，非阻塞入队
func (h *DocumentHandler) Save(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	id, ok := documentID(c)
	if !ok {
		response.ToResponse(code.ErrorInvalidParams)
		return
	}

	params := &DocumentSaveRequest{}
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("DocumentHandler.Save.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()))
		return
	}

	if err := h.App.StorageService.SubmitSave(id, params.UID, params.Content, params.Operation); err != nil {
		response.ToResponse(code.ErrorServiceStopped)
		return
	}

	response.ToResponse(code.Success)
}

// Versions 获取版本历史（分页）
func (h *DocumentHandler) Versions(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	id, ok := documentID(c)
	if !ok {
		response.ToResponse(code.ErrorInvalidParams)
		return
	}

	pageSize := listPageSize(c)
	offset := pkgapp.GetPageOffset(pkgapp.GetPage(c), pageSize)
	versions := h.App.StorageService.GetVersions(c.Request.Context(), id, pageSize, offset)

	total, err := h.App.VersionRepo.CountByDocumentID(c.Request.Context(), id)
	if err != nil {
		h.App.Logger().Error("DocumentHandler.Versions count err",
			zap.Int64(logger.FieldDocumentID, id), zap.Error(err))
	}

	response.ToResponseList(versions, int(total))
}

// VersionDiff 获取两个版本之间的差异
func (h *DocumentHandler) VersionDiff(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	id, ok := documentID(c)
	if !ok {
		response.ToResponse(code.ErrorInvalidParams)
		return
	}

	from, err1 := strconv.ParseInt(c.Query("from"), 10, 64)
	to, err2 := strconv.ParseInt(c.Query("to"), 10, 64)
	if err1 != nil || err2 != nil || from <= 0 || to <= 0 {
		response.ToResponse(code.ErrorInvalidParams.WithDetails("from and to version numbers are required"))
		return
	}

	result, err := h.App.StorageService.VersionDiff(c.Request.Context(), id, from, to)
	if err != nil {
		var codeErr *code.Code
		if errors.As(err, &codeErr) {
			response.ToResponse(codeErr)
			return
		}
		response.ToResponse(code.ErrorDiffFailed.WithDetails(err.Error()))
		return
	}

	response.ToResponse(code.Success.WithData(result))
}

// SnapshotRequest 创建快照请求参数
type SnapshotRequest struct {
	UID         int64  `json:"uid" binding:"required"`
	Description string `json:"description"`
}

// Snapshot 为当前内容创建命名检查点
func (h *DocumentHandler) Snapshot(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	id, ok := documentID(c)
	if !ok {
		response.ToResponse(code.ErrorInvalidParams)
		return
	}

	params := &SnapshotRequest{}
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()))
		return
	}

	if err := h.App.StorageService.CreateSnapshot(c.Request.Context(), id, params.UID, params.Description); err != nil {
		var codeErr *code.Code
		if errors.As(err, &codeErr) {
			response.ToResponse(codeErr)
			return
		}
		response.ToResponse(code.ErrorSnapshotFailed.WithDetails(err.Error()))
		return
	}

	response.ToResponse(code.Success)
}

// RestoreRequest 恢复版本请求参数
type RestoreRequest struct {
	UID int64 `json:"uid" binding:"required"`
}

// Restore 恢复到指定历史版本
func (h *DocumentHandler) Restore(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	id, ok := documentID(c)
	if !ok {
		response.ToResponse(code.ErrorInvalidParams)
		return
	}

	versionNumber, err := strconv.ParseInt(c.Param("version"), 10, 64)
	if err != nil || versionNumber <= 0 {
		response.ToResponse(code.ErrorInvalidParams)
		return
	}

	params := &RestoreRequest{}
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()))
		return
	}

	if !h.App.StorageService.RestoreVersion(c.Request.Context(), id, versionNumber, params.UID) {
		response.ToResponse(code.ErrorRestoreFailed)
		return
	}

	response.ToResponse(code.Success)
}

// Operations 获取操作记录（分页）
func (h *DocumentHandler) Operations(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	id, ok := documentID(c)
	if !ok {
		response.ToResponse(code.ErrorInvalidParams)
		return
	}

	pageSize := listPageSize(c)
	offset := pkgapp.GetPageOffset(pkgapp.GetPage(c), pageSize)
	operations := h.App.StorageService.GetOperations(c.Request.Context(), id, pageSize, offset)

	total, err := h.App.OperationRepo.CountByDocumentID(c.Request.Context(), id)
	if err != nil {
		h.App.Logger().Error("DocumentHandler.Operations count err",
			zap.Int64(logger.FieldDocumentID, id), zap.Error(err))
	}

	response.ToResponseList(operations, int(total))
}

// CleanupOperations 清理操作日志
func (h *DocumentHandler) CleanupOperations(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	id, ok := documentID(c)
	if !ok {
		response.ToResponse(code.ErrorInvalidParams)
		return
	}

	keep, _ := strconv.Atoi(c.Query("keep"))
	deleted, err := h.App.StorageService.CleanupOperations(c.Request.Context(), id, keep)
	if err != nil {
		var codeErr *code.Code
		if errors.As(err, &codeErr) {
			response.ToResponse(codeErr)
			return
		}
		response.ToResponse(code.ErrorCleanupFailed.WithDetails(err.Error()))
		return
	}

	response.ToResponse(code.Success.WithData(gin.H{"deleted": deleted}))
}

// Statistics 获取文档统计信息
func (h *DocumentHandler) Statistics(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	id, ok := documentID(c)
	if !ok {
		response.ToResponse(code.ErrorInvalidParams)
		return
	}

	stats := h.App.StorageService.GetStatistics(c.Request.Context(), id)
	if stats == nil {
		response.ToResponse(code.ErrorDocumentNotFound)
		return
	}

	response.ToResponse(code.Success.WithData(stats))
}
