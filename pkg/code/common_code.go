package code

// 通用状态码
var (
	Success             = NewSuss(0, "success")
	ErrorServerInternal = NewError(10000, "server internal error")
	ErrorInvalidParams  = NewError(10001, "invalid request params")
	ErrorNotFound       = NewError(10002, "resource not found")
	ErrorDBQuery        = NewError(10003, "database query error")
)

// 文档相关状态码
var (
	ErrorDocumentNotFound     = NewError(20000, "document not found")
	ErrorVersionNotFound      = NewError(20001, "document version not found")
	ErrorDocumentCreateFailed = NewError(20002, "document create failed")
	ErrorSnapshotFailed       = NewError(20003, "version snapshot failed")
	ErrorRestoreFailed        = NewError(20004, "version restore failed")
	ErrorDiffFailed           = NewError(20005, "version diff failed")
	ErrorCleanupFailed        = NewError(20006, "operation cleanup failed")
	ErrorServiceStopped       = NewError(20007, "storage service stopped")
)
