// Package dbussvc exposes a read-only view of the station's FT/DPP state
// on the session bus, for desktop network-manager integrations that poll
// D-Bus rather than the ConnectRPC control surface.
package dbussvc

import (
	"github.com/godbus/dbus/v5"

	"github.com/gowsd/gowsd/internal/wsderr"
)

const (
	// BusName is the well-known name gowsd registers on the session bus.
	BusName = "org.gowsd.Station1"
	// ObjectPath is the single object this service exports.
	ObjectPath = dbus.ObjectPath("/org/gowsd/Station1")
	// InterfaceName is the D-Bus interface name methods are exported under.
	InterfaceName = "org.gowsd.Station1"
)

// Status is the read-only snapshot exported as properties on ObjectPath.
type Status struct {
	Interface  string
	MAC        string
	FTPending  uint32
	DPPEnabled bool
}

// Service owns the session-bus connection and the exported object.
type Service struct {
	conn   *dbus.Conn
	status Status
}

// Connect opens a connection to the session bus and requests BusName.
func Connect() (*Service, error) {
	const op = "dbussvc.Connect"
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, wsderr.New(wsderr.KindUnsupported, op, err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, wsderr.New(wsderr.KindUnsupported, op, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, wsderr.New(wsderr.KindAlreadyPresent, op, nil)
	}

	return &Service{conn: conn}, nil
}

// Export registers s.status's fields as a GetStatus method on
// ObjectPath/InterfaceName.
func (s *Service) Export() error {
	const op = "dbussvc.Export"
	if err := s.conn.Export(s, ObjectPath, InterfaceName); err != nil {
		return wsderr.New(wsderr.KindUnsupported, op, err)
	}
	return nil
}

// Update replaces the exported status snapshot, reflected on the next
// GetStatus call.
func (s *Service) Update(status Status) {
	s.status = status
}

// GetStatus is the exported D-Bus method; dbus reflects on its name and
// signature to build the introspection XML automatically.
func (s *Service) GetStatus() (Status, *dbus.Error) {
	return s.status, nil
}

// Close releases the bus connection.
func (s *Service) Close() error {
	return s.conn.Close()
}
