package entities

import "github.com/google/uuid"

// Capability names one permission checked before a mutating call.
type Capability string

const (
	CapRequestCard       Capability = "transaction:request"
	CapConfirmAsUser     Capability = "transaction:confirm_user"
	CapConfirmAsTrader   Capability = "transaction:confirm_trader"
	CapCancelTransaction Capability = "transaction:cancel"
	CapRegisterTrader    Capability = "trader:register"
	CapManageCards       Capability = "card:manage"
	CapViewTraderData    Capability = "trader:view"
	CapManageLedger      Capability = "ledger:manage"
	CapManageAccounts    Capability = "account:manage"
	CapManageSettings    Capability = "settings:manage"
	CapViewAll           Capability = "admin:view"
)

// ActorSystem is the role used by background jobs.
const ActorSystem UserRole = "system"

var roleCapabilities = map[UserRole][]Capability{
	UserRoleUser: {
		CapRequestCard,
		CapConfirmAsUser,
		CapRegisterTrader,
	},
	// provisioned traders still need to create their profile
	UserRoleTrader: {
		CapRegisterTrader,
		CapManageCards,
		CapConfirmAsTrader,
		CapViewTraderData,
	},
	// admins may also run a trader profile of their own
	UserRoleAdmin: {
		CapRegisterTrader,
		CapManageCards,
		CapConfirmAsTrader,
		CapViewTraderData,
		CapCancelTransaction,
		CapManageLedger,
		CapManageAccounts,
		CapManageSettings,
		CapViewAll,
	},
	ActorSystem: {
		CapCancelTransaction,
	},
}

// Actor is the typed identity a usecase authorizes against.
type Actor struct {
	UserID uuid.UUID
	Role   UserRole
}

// SystemActor identifies background work such as the expiry sweep.
func SystemActor() Actor {
	return Actor{Role: ActorSystem}
}

// Can reports whether the actor's role grants c.
func (a Actor) Can(c Capability) bool {
	for _, granted := range roleCapabilities[a.Role] {
		if granted == c {
			return true
		}
	}
	return false
}

func (a Actor) IsSystem() bool {
	return a.Role == ActorSystem
}
