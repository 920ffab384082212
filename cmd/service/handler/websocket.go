package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/easy-dataset/easy-dataset/app/core"
	"github.com/easy-dataset/easy-dataset/app/response"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/eventbus"
	"github.com/easy-dataset/easy-dataset/pkg/i18n"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Events 推送项目内的任务事件，kind 查询参数可以重复用于过滤事件类型
func Events(core *core.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID := c.Param("projectId")
		if _, err := core.Store().ProjectStore().GetProject(c.Request.Context(), projectID); err != nil {
			response.APIError(c, errors.New("api.Events.ProjectStore.GetProject", i18n.ERROR_PROJECT_NOT_FOUND, err).Code(http.StatusNotFound))
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("Websocket Upgrade err", slog.String("error", err.Error()))
			return
		}
		defer ws.Close()

		var kinds []eventbus.Kind
		for _, k := range c.QueryArray("kind") {
			kinds = append(kinds, eventbus.Kind(k))
		}
		sub := core.Bus().Subscribe(projectID, kinds...)
		defer sub.Close()

		// 客户端不会发送业务消息，读循环只用来感知断开
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			ws.SetReadLimit(512)
			_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
			ws.SetPongHandler(func(string) error {
				return ws.SetReadDeadline(time.Now().Add(wsPongWait))
			})
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-closed:
				return
			case e, ok := <-sub.C():
				if !ok {
					_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(wsWriteWait))
					return
				}
				_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := ws.WriteJSON(e); err != nil {
					slog.Warn("failed to write event", slog.String("project_id", projectID), slog.String("error", err.Error()))
					return
				}
			case <-ticker.C:
				if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			}
		}
	}
}
