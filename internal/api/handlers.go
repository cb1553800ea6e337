package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wingera/schematic-material-viewer/internal/protocol"
	"github.com/wingera/schematic-material-viewer/internal/session"
	"github.com/wingera/schematic-material-viewer/internal/storage"
	"github.com/wingera/schematic-material-viewer/internal/users"
)

// Handlers holds the collaborators the HTTP surface delegates to.
type Handlers struct {
	Files *storage.Store
	Users *users.Store
	Coord *session.Coordinator

	// MaxUploadBytes caps multipart uploads.
	MaxUploadBytes int64
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"userCount": h.Coord.UserCount(),
	})
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "无效的请求数据")
		return
	}
	if err := h.Users.Register(req.Username, req.Password); err != nil {
		if errors.Is(err, users.ErrStorage) {
			L(r.Context()).Error("register failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "注册失败，请重试")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "注册成功"})
}

// Login validates credentials and echoes the display name back. There is
// no session cookie and no enforcement elsewhere; the realtime protocol
// trusts the username the client attaches to its events.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "无效的请求数据")
		return
	}
	if err := h.Users.Authenticate(req.Username, req.Password); err != nil {
		if errors.Is(err, users.ErrBadCredentials) {
			writeError(w, http.StatusUnauthorized, "用户名或密码错误")
			return
		}
		L(r.Context()).Error("login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "登录时发生错误")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "登录成功",
		"username": req.Username,
	})
}

func (h *Handlers) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.Files.List()
	if err != nil {
		L(r.Context()).Error("list files", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "获取文件列表时发生错误")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

// Upload stores the raw file, parses it into rows and returns them. A
// file that cannot be parsed is removed again so the folder never holds
// unreadable lists.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	log := L(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "没有选择文件")
		return
	}
	defer file.Close()

	name := storage.Sanitize(header.Filename)
	if name == "" {
		writeError(w, http.StatusBadRequest, "没有选择文件")
		return
	}
	if !storage.Allowed(name) {
		writeError(w, http.StatusBadRequest, "不支持的文件类型")
		return
	}

	info, err := h.Files.WriteRaw(name, file)
	if err != nil {
		log.Error("upload save", zap.String("filename", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "文件保存失败")
		return
	}

	rows, err := h.Files.Open(info.Filename)
	if err != nil {
		_ = h.Files.Delete(info.Filename)
		log.Warn("upload parse failed", zap.String("filename", name), zap.Error(err))
		writeError(w, http.StatusBadRequest, "文件解析失败: "+err.Error())
		return
	}

	info.Description = r.FormValue("description")
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"filename":  info.Filename,
		"data":      rows,
		"file_info": info,
	})
}

type saveRequest struct {
	Filename    string         `json:"filename"`
	Description string         `json:"description"`
	Data        []protocol.Row `json:"data"`
}

func (h *Handlers) Save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "无效的请求数据")
		return
	}
	if req.Filename == "" {
		req.Filename = "materials.sti"
	}
	info, err := h.Files.SaveRows(req.Filename, req.Data)
	if err != nil {
		L(r.Context()).Error("save file", zap.String("filename", req.Filename), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "保存文件时出错")
		return
	}
	info.Description = req.Description
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "文件成功保存: " + info.Filename,
		"file_info": info,
	})
}

func (h *Handlers) OpenFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	rows, err := h.Files.Open(filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "文件不存在")
			return
		}
		L(r.Context()).Error("open file", zap.String("filename", filename), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "读取文件时出错")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"filename": filename,
		"data":     rows,
	})
}

func (h *Handlers) DeleteFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if err := h.Files.Delete(filename); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "文件不存在")
			return
		}
		L(r.Context()).Error("delete file", zap.String("filename", filename), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "删除文件时出错")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "文件已删除: " + filename})
}
