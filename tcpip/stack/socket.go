package stack

// Socket is the handle a transport endpoint presents to the routing code.
// Only the endpoint association is modelled here; all protocol state lives
// with the transport layer.
type Socket struct {
	endpoint *NetworkEndpoint
}

// Endpoint returns the endpoint the socket is bound to, or nil when the
// socket is nil or not bound.
func (s *Socket) Endpoint() *NetworkEndpoint {
	if s == nil {
		return nil
	}
	return s.endpoint
}

// SetEndpoint binds the socket to an endpoint.
func (s *Socket) SetEndpoint(ep *NetworkEndpoint) {
	s.endpoint = ep
}
