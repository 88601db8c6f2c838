// Package app 提供 HTTP 层的统一响应与请求辅助
package app

import (
	"github.com/nexdoc/doc-persist-service/pkg/code"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Ctx *gin.Context
}

type Pager struct {
	Page      int `json:"page"`      // Page number // 页码
	PageSize  int `json:"pageSize"`  // Page size // 每页数量
	TotalRows int `json:"totalRows"` // Total rows // 总行数
}

type ListRes struct {
	List  interface{} `json:"list"`  // Data list // 数据清单
	Pager Pager       `json:"pager"` // Pagination info // 翻页信息
}

// Res is the unified response structure: Code/Status/Msg/Data
// Res 是统一的响应结构：Code/Status/Msg/Data
type Res struct {
	Code    int         `json:"code"`
	Status  bool        `json:"status"`
	Message interface{} `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func NewResponse(ctx *gin.Context) *Response {
	return &Response{
		Ctx: ctx,
	}
}

// ToResponse output to browser: unified use of Res
// ToResponse 输出到浏览器：统一使用 Res
func (r *Response) ToResponse(codeObj *code.Code) {
	content := Res{
		Code:    codeObj.Code(),
		Status:  codeObj.Status(),
		Message: codeObj.Msg(),
		Data:    codeObj.Data(),
	}
	if details := codeObj.Details(); len(details) > 0 {
		content.Details = details
	}
	r.Ctx.JSON(codeObj.StatusCode(), content)
}

// ToResponseList 输出带翻页信息的列表
func (r *Response) ToResponseList(list interface{}, totalRows int) {
	res := code.Success.WithData(ListRes{
		List: list,
		Pager: Pager{
			Page:      GetPage(r.Ctx),
			PageSize:  GetPageSize(r.Ctx),
			TotalRows: totalRows,
		},
	})
	r.ToResponse(res)
}
