package api_router

import (
	"github.com/thingspace/thingspace-notes/internal/app"
	"github.com/thingspace/thingspace-notes/internal/dto"
	pkgapp "github.com/thingspace/thingspace-notes/pkg/app"
	"github.com/thingspace/thingspace-notes/pkg/code"
	apperrors "github.com/thingspace/thingspace-notes/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NoteHandler 笔记 API 路由处理器
// 使用 App Container 注入依赖，支持统一错误处理
type NoteHandler struct {
	*Handler
}

// NewNoteHandler 创建 NoteHandler 实例
func NewNoteHandler(a *app.App) *NoteHandler {
	return &NoteHandler{
		Handler: NewHandler(a),
	}
}

// Create 创建笔记
// @Summary 创建笔记
// @Description 在工作区中创建笔记，调用方必须是该工作区的可写成员
// @Tags 笔记
// @Security UserAuthToken
// @Accept json
// @Produce json
// @Param params body dto.NoteCreateRequest true "笔记内容"
// @Success 201 {object} pkgapp.Res{data=dto.NoteDTO} "成功"
// @Router /notes [post]
func (h *NoteHandler) Create(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteCreateRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Warn("NoteHandler.Create.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()))
		return
	}

	uid, ok := h.requireUser(c, "NoteHandler.Create")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	note, err := h.App.NoteService.Create(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "NoteHandler.Create", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Created.WithData(note))
}

// Update 修改笔记
// @Summary 修改笔记
// @Description 部分更新：未提供的字段保持原值；提供 version 时执行乐观并发检查
// @Tags 笔记
// @Security UserAuthToken
// @Accept json
// @Produce json
// @Param id path string true "笔记 ID"
// @Param params body dto.NoteUpdateRequest true "修改内容"
// @Success 200 {object} pkgapp.Res{data=dto.NoteDTO} "成功"
// @Router /notes/{id} [put]
func (h *NoteHandler) Update(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteUpdateRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Warn("NoteHandler.Update.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()))
		return
	}
	params.ID = c.Param("id")

	uid, ok := h.requireUser(c, "NoteHandler.Update")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	note, err := h.App.NoteService.Update(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "NoteHandler.Update", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(note))
}

// Delete 删除笔记
// @Summary 删除笔记
// @Description 仅笔记作者可删除，返回被删除的笔记
// @Tags 笔记
// @Security UserAuthToken
// @Produce json
// @Param id path string true "笔记 ID"
// @Success 200 {object} pkgapp.Res{data=dto.NoteDTO} "成功"
// @Router /notes/{id} [delete]
func (h *NoteHandler) Delete(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	uid, ok := h.requireUser(c, "NoteHandler.Delete")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	note, err := h.App.NoteService.Delete(ctx, uid, c.Param("id"))
	if err != nil {
		h.logError(ctx, "NoteHandler.Delete", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(note))
}

// Get 获取单条笔记详情
// @Summary 获取笔记详情
// @Tags 笔记
// @Security UserAuthToken
// @Produce json
// @Param id path string true "笔记 ID"
// @Success 200 {object} pkgapp.Res{data=dto.NoteDTO} "成功"
// @Router /notes/{id} [get]
func (h *NoteHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	if _, ok := h.requireUser(c, "NoteHandler.Get"); !ok {
		return
	}

	ctx := c.Request.Context()
	note, err := h.App.NoteService.Get(ctx, c.Param("id"))
	if err != nil {
		h.logError(ctx, "NoteHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(note))
}

// List 检索笔记
// @Summary 检索笔记
// @Description 按工作区和类型取候选，标签任一匹配过滤，再按词法与语义混合得分排序
// @Tags 笔记
// @Security UserAuthToken
// @Produce json
// @Param params query dto.NoteSearchRequest true "检索参数"
// @Success 200 {object} pkgapp.Res{data=dto.NoteSearchResponse} "成功"
// @Router /notes [get]
func (h *NoteHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteSearchRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Warn("NoteHandler.List.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()))
		return
	}

	if _, ok := h.requireUser(c, "NoteHandler.List"); !ok {
		return
	}

	ctx := c.Request.Context()
	res, err := h.App.NoteService.List(ctx, params)
	if err != nil {
		h.logError(ctx, "NoteHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(res))
}

// Share 将笔记移动到另一个工作区
// @Summary 分享笔记
// @Description 笔记从当前工作区移动到目标工作区，调用方需是两个工作区的可写成员
// @Tags 笔记
// @Security UserAuthToken
// @Accept json
// @Produce json
// @Param id path string true "笔记 ID"
// @Param params body dto.NoteMoveRequest true "目标工作区"
// @Success 200 {object} pkgapp.Res{data=dto.NoteDTO} "成功"
// @Router /notes/{id}/share [post]
func (h *NoteHandler) Share(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteMoveRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Warn("NoteHandler.Share.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()))
		return
	}
	params.ID = c.Param("id")

	uid, ok := h.requireUser(c, "NoteHandler.Share")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	note, err := h.App.AccessService.Share(ctx, params.ID, uid, params.WorkspaceID)
	if err != nil {
		h.logError(ctx, "NoteHandler.Share", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(note))
}

// Copy 复制笔记到另一个工作区
// @Summary 复制笔记
// @Description 在目标工作区创建独立副本，作者为调用方
// @Tags 笔记
// @Security UserAuthToken
// @Accept json
// @Produce json
// @Param id path string true "笔记 ID"
// @Param params body dto.NoteMoveRequest true "目标工作区"
// @Success 201 {object} pkgapp.Res{data=dto.NoteDTO} "成功"
// @Router /notes/{id}/copy [post]
func (h *NoteHandler) Copy(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteMoveRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Warn("NoteHandler.Copy.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()))
		return
	}
	params.ID = c.Param("id")

	uid, ok := h.requireUser(c, "NoteHandler.Copy")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	note, err := h.App.AccessService.Copy(ctx, params.ID, uid, params.WorkspaceID)
	if err != nil {
		h.logError(ctx, "NoteHandler.Copy", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Created.WithData(note))
}

// Workspaces 查询笔记所在的工作区
// @Summary 笔记所在工作区
// @Tags 笔记
// @Security UserAuthToken
// @Produce json
// @Param id path string true "笔记 ID"
// @Success 200 {object} pkgapp.Res{data=dto.NoteWorkspacesResponse} "成功"
// @Router /notes/{id}/workspaces [get]
func (h *NoteHandler) Workspaces(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	if _, ok := h.requireUser(c, "NoteHandler.Workspaces"); !ok {
		return
	}

	ctx := c.Request.Context()
	res, err := h.App.AccessService.WorkspacesForNote(ctx, c.Param("id"))
	if err != nil {
		h.logError(ctx, "NoteHandler.Workspaces", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(res))
}
