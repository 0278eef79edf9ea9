package websocket

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/xpanvictor/somniatrack/pkg/Logger"
)

// ConnectionManager tracks open stream clients
type ConnectionManager struct {
	logger  *Logger.Logger
	clients map[uuid.UUID]*Client
	mutex   sync.RWMutex
}

func NewConnectionManager(logger *Logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		logger:  logger,
		clients: make(map[uuid.UUID]*Client),
	}
}

func (cm *ConnectionManager) RegisterConnection(client *Client) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.clients[client.ID] = client
	cm.logger.Infof("registered stream client %s for session %s", client.ID, client.SessionID)
}

// UnregisterConnection removes and closes a client
func (cm *ConnectionManager) UnregisterConnection(clientID uuid.UUID) {
	cm.mutex.Lock()
	client, exists := cm.clients[clientID]
	delete(cm.clients, clientID)
	cm.mutex.Unlock()

	if !exists {
		return
	}
	cm.logger.Infof("unregistering stream client %s for session %s", clientID, client.SessionID)
	if err := client.Close(websocket.CloseNormalClosure, ""); err != nil {
		cm.logger.Debugf("closing client %s: %v", clientID, err)
	}
}

func (cm *ConnectionManager) GetConnectionCount() int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return len(cm.clients)
}

// CountForSession returns how many clients stream the given session
func (cm *ConnectionManager) CountForSession(sessionID uuid.UUID) int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	n := 0
	for _, c := range cm.clients {
		if c.SessionID == sessionID {
			n++
		}
	}
	return n
}

// GetStats returns connection statistics
func (cm *ConnectionManager) GetStats() map[string]interface{} {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	perSession := make(map[string]int)
	for _, c := range cm.clients {
		perSession[c.SessionID.String()]++
	}
	return map[string]interface{}{
		"totalConnections": len(cm.clients),
		"sessions":         perSession,
	}
}

// Shutdown closes every client
func (cm *ConnectionManager) Shutdown() {
	cm.mutex.Lock()
	clients := make([]*Client, 0, len(cm.clients))
	for id, c := range cm.clients {
		clients = append(clients, c)
		delete(cm.clients, id)
	}
	cm.mutex.Unlock()

	for _, c := range clients {
		_ = c.Close(websocket.CloseGoingAway, "server shutting down")
	}
	cm.logger.Infof("closed %d stream client(s)", len(clients))
}
