package manager

import "github.com/HackenWijaya/ChessHero/pkg/messages"

// Lobby summarizes every room in creation order
func (m *Manager) Lobby() []messages.LobbyRoom {
	rooms := m.rooms.List()
	summary := make([]messages.LobbyRoom, 0, len(rooms))
	for _, room := range rooms {
		room.Lock()
		summary = append(summary, room.Summary())
		room.Unlock()
	}
	return summary
}

// broadcastLobby pushes the lobby to every connection. Refreshes are
// serialized so the last frame sent is never older than one before it.
// Must not be called with a room lock held.
func (m *Manager) broadcastLobby() {
	m.lobbyMu.Lock()
	defer m.lobbyMu.Unlock()

	m.out.SendToAll(messages.OutboundMessage{
		Event:   messages.EventLobbyState,
		Payload: m.Lobby(),
	})
}

// SendLobby pushes the lobby to a single, newly connected client
func (m *Manager) SendLobby(connID string) {
	m.lobbyMu.Lock()
	defer m.lobbyMu.Unlock()

	m.out.SendToConn(connID, messages.OutboundMessage{
		Event:   messages.EventLobbyState,
		Payload: m.Lobby(),
	})
}
