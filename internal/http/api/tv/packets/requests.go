package packets

// REQUESTS FOR /api/devices/register
type RegisterRequest struct {
	ClientID string `form:"clientId"`
}
