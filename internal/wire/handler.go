package wire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/Lagunov2003/practice-registry/internal/form"
	"github.com/Lagunov2003/practice-registry/internal/logging"
	"github.com/Lagunov2003/practice-registry/internal/practiceapi"
	"github.com/Lagunov2003/practice-registry/internal/session"
	"github.com/Lagunov2003/practice-registry/internal/suggest"
	"github.com/Lagunov2003/practice-registry/internal/workspace"
)

// Error codes sent in "error" messages.
const (
	CodeUnknownType   = "unknown_type"
	CodeInvalidData   = "invalid_data"
	CodeValidation    = "validation"
	CodeInvalidState  = "invalid_state"
	CodeNotFound      = "not_found"
	CodeRequestFailed = "request_failed"
	CodeInternal      = "internal"
)

// Handler manages WebSocket connections for admin sessions.
type Handler struct {
	sessions *session.Manager
	log      *zap.Logger
}

// NewHandler creates a WebSocket handler.
func NewHandler(sessions *session.Manager, log *zap.Logger) *Handler {
	return &Handler{sessions: sessions, log: logging.OrNop(log).Named("wire")}
}

// ServeHTTP upgrades to WebSocket and runs the message loop. A known
// ?session= id resumes that session instead of creating one.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn("websocket accept", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	sess, resumed := h.sessions.Get(r.URL.Query().Get("session")), true
	if sess == nil {
		sess, resumed = h.sessions.Create(), false
	}
	c := &connSink{ctx: ctx, conn: conn, log: h.log.With(zap.String("session", sess.ID))}
	sess.Attach(c)
	defer func() {
		if sess.Detach(c) {
			sess.Workspace.CloseModal()
		}
	}()

	c.send(ServerMessage{Type: TypeSession, Data: SessionData{SessionID: sess.ID, Resumed: resumed}})
	if !sess.Workspace.Snapshot().Loaded {
		_ = sess.Workspace.Load(ctx)
	}
	sess.PushState()

	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) != -1 {
				c.log.Debug("connection closed", zap.Int("status", int(websocket.CloseStatus(err))))
			}
			return
		}
		sess.Touch()
		if msg.Type == TypePing {
			c.send(ServerMessage{Type: TypePong, RequestID: msg.ID})
			continue
		}
		if err := h.dispatch(ctx, sess.Workspace, msg); err != nil {
			c.sendError(msg.ID, err)
		}
		sess.PushState()
	}
}

func (h *Handler) dispatch(ctx context.Context, ws *workspace.Workspace, msg ClientMessage) error {
	switch msg.Type {
	case TypeView:
		var data ViewData
		if err := decode(msg, &data); err != nil {
			return err
		}
		v, err := workspace.ParseView(data.View)
		if err != nil {
			return err
		}
		return ws.SetView(ctx, v)
	case TypeReload:
		return ws.Load(ctx)
	case TypeOpenAdd:
		ws.OpenAdd()
	case TypeOpenEdit:
		var data OpenEditData
		if err := decode(msg, &data); err != nil {
			return err
		}
		return ws.OpenEdit(data.ID)
	case TypeOpenFilter:
		ws.OpenFilter()
	case TypeInput:
		var data InputData
		if err := decode(msg, &data); err != nil {
			return err
		}
		return ws.Input(data.Field, data.Value)
	case TypeSelect:
		var data SelectData
		if err := decode(msg, &data); err != nil {
			return err
		}
		return ws.Select(data.Field, data.Index)
	case TypeSubmit:
		return ws.Save(ctx)
	case TypeApply:
		return ws.ApplyFilter(ctx)
	case TypeReset:
		return ws.ResetFilter()
	case TypeClose:
		ws.CloseModal()
	default:
		return &protocolError{code: CodeUnknownType, msg: fmt.Sprintf("unknown message type: %s", msg.Type)}
	}
	return nil
}

type protocolError struct {
	code string
	msg  string
}

func (e *protocolError) Error() string { return e.msg }

func decode(msg ClientMessage, v any) error {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return &protocolError{code: CodeInvalidData, msg: fmt.Sprintf("invalid %s data", msg.Type)}
	}
	return nil
}

// ErrorCode classifies err for the client.
func ErrorCode(err error) string {
	var pe *protocolError
	switch {
	case errors.As(err, &pe):
		return pe.code
	case errors.Is(err, form.ErrMissingRequiredFields),
		errors.Is(err, form.ErrOrganizationRequiredForIndustrial),
		errors.Is(err, form.ErrSupervisorNotResolved),
		errors.Is(err, form.ErrBadSuggestion):
		return CodeValidation
	case errors.Is(err, form.ErrFieldReadOnly),
		errors.Is(err, form.ErrRecordLocked),
		errors.Is(err, form.ErrNotEditing),
		errors.Is(err, form.ErrUnknownField),
		errors.Is(err, workspace.ErrNoModal),
		errors.Is(err, workspace.ErrUnknownView),
		errors.Is(err, workspace.ErrEditUnavailable):
		return CodeInvalidState
	case errors.Is(err, workspace.ErrRecordNotFound),
		errors.Is(err, workspace.ErrSuggestionNotFound):
		return CodeNotFound
	case errors.Is(err, practiceapi.ErrRequestFailed):
		return CodeRequestFailed
	}
	return CodeInternal
}

// connSink writes pushes to one connection. coder/websocket allows
// concurrent writers, so suggestion goroutines write directly.
type connSink struct {
	ctx  context.Context
	conn *websocket.Conn
	log  *zap.Logger
}

func (c *connSink) State(snap workspace.Snapshot) {
	c.send(ServerMessage{Type: TypeState, Data: snap})
}

func (c *connSink) Suggestions(field string, st suggest.State) {
	c.send(ServerMessage{Type: TypeSuggestions, Data: SuggestionsData{
		Field:    field,
		Query:    st.Query,
		Items:    st.Items,
		Searched: st.Searched,
	}})
}

func (c *connSink) send(msg ServerMessage) {
	if err := wsjson.Write(c.ctx, c.conn, msg); err != nil {
		c.log.Debug("write error", zap.String("type", msg.Type), zap.Error(err))
	}
}

func (c *connSink) sendError(requestID string, err error) {
	c.send(ServerMessage{
		Type:      TypeError,
		RequestID: requestID,
		Data:      ErrorData{Code: ErrorCode(err), Message: err.Error()},
	})
}

var _ session.Sink = (*connSink)(nil)
