package sharegpt

// Strict role vocabulary accepted by the validator.
const (
	RoleHuman        = "human"
	RoleGPT          = "gpt"
	RoleFunctionCall = "function_call"
	RoleObservation  = "observation"
)

// Legacy aliases that appear in progress files from older exports. The
// strict validator rejects them; lenient paths only warn.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// IsStrictRole reports whether role belongs to the strict vocabulary.
func IsStrictRole(role string) bool {
	switch role {
	case RoleHuman, RoleGPT, RoleFunctionCall, RoleObservation:
		return true
	}
	return false
}

// IsLegacyRole reports whether role is one of the legacy aliases.
func IsLegacyRole(role string) bool {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}
