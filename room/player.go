package room

import (
	"github.com/wfunc/werewords/game"
	"github.com/wfunc/werewords/models"
)

// Player 房间内的玩家。ID 在重连后保持不变；ConnID 为空表示已断线
type Player struct {
	ID         string
	ConnID     string
	Name       string
	Role       game.Role
	Word       string
	HostWeight game.Weight
}

func (p *Player) Connected() bool {
	return p.ConnID != ""
}

func (p *Player) View() models.PlayerView {
	return models.PlayerView{ID: p.ID, Name: p.Name, Connected: p.Connected()}
}

// informed players see the secret word.
func (p *Player) informed() bool {
	return p.Role == game.RoleSeer || p.Role == game.RoleWolf
}
