// internal/handlers/notify.go
package handlers

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/pwalczyk/amici/internal/middleware"
)

// NotifyHandler upgrades the request to a websocket and streams friend
// events addressed to the caller until the client disconnects. Events are
// delivered best effort; a slow consumer misses events rather than
// blocking the publisher.
func (fs *FriendServer) NotifyHandler(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if fs.Events == nil {
		http.Error(w, "notifications unavailable", http.StatusServiceUnavailable)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"}, // Adjust in production
	})
	if err != nil {
		fs.Log.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	middleware.LogWebSocketConnect(fs.Log, r.RemoteAddr, r.URL.Path)

	ch := fs.Events.Subscribe(callerID)
	defer fs.Events.Unsubscribe(callerID, ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			middleware.LogWebSocketDisconnect(fs.Log, r.RemoteAddr, r.URL.Path, ctx.Err())
			c.Close(websocket.StatusNormalClosure, "context done")
			return
		case rec, open := <-ch:
			if !open {
				c.Close(websocket.StatusNormalClosure, "subscription closed")
				return
			}
			if err := wsjson.Write(ctx, c, rec); err != nil {
				middleware.LogWebSocketDisconnect(fs.Log, r.RemoteAddr, r.URL.Path, err)
				return
			}
		}
	}
}
