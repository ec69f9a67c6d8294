// Package transport opens stream connections over tcp, tls or quic, selected
// by name.
package transport

import (
	"crypto/tls"
	"net"

	"github.com/pkg/errors"
)

type Protocol interface {
	Listen(address string) (Accepter, error)
	Dial(address string) (net.Conn, error)
}

type Accepter interface {
	Accept() (net.Conn, error)
	Close() error
	Addr() net.Addr
}

type protoProtocol struct {
	listen func(address string) (Accepter, error)
	dial   func(address string) (net.Conn, error)
}

func (self protoProtocol) Listen(address string) (Accepter, error) { return self.listen(address) }
func (self protoProtocol) Dial(address string) (net.Conn, error)   { return self.dial(address) }

var Protocols = []string{"tcp", "tls", "quic"}

func ProtocolFor(protocol string) (Protocol, error) {
	switch protocol {
	case "tcp":
		return protoProtocol{
			listen: func(address string) (Accepter, error) {
				listenAddress, err := net.ResolveTCPAddr("tcp", address)
				if err != nil {
					return nil, errors.Wrap(err, "resolve address")
				}
				listener, err := net.ListenTCP("tcp", listenAddress)
				if err != nil {
					return nil, errors.Wrap(err, "listen")
				}
				return listener, nil
			},
			dial: func(address string) (net.Conn, error) {
				dialAddress, err := net.ResolveTCPAddr("tcp", address)
				if err != nil {
					return nil, errors.Wrap(err, "resolve address")
				}
				conn, err := net.DialTCP("tcp", nil, dialAddress)
				if err != nil {
					return nil, errors.Wrap(err, "dial")
				}
				if err := conn.SetNoDelay(true); err != nil {
					return nil, errors.Wrap(err, "no delay")
				}
				return conn, nil
			},
		}, nil

	case "tls":
		tlsConfig, err := generateTLSConfig()
		if err != nil {
			return nil, err
		}
		return protoProtocol{
			listen: func(address string) (Accepter, error) {
				listener, err := tls.Listen("tcp", address, tlsConfig)
				if err != nil {
					return nil, errors.Wrap(err, "listen")
				}
				return listener, nil
			},
			dial: func(address string) (net.Conn, error) {
				conn, err := tls.Dial("tcp", address, tlsConfig)
				if err != nil {
					return nil, errors.Wrap(err, "dial")
				}
				return conn, nil
			},
		}, nil

	case "quic":
		tlsConfig, err := generateTLSConfig()
		if err != nil {
			return nil, err
		}
		return protoProtocol{
			listen: func(address string) (Accepter, error) { return listenQuic(address, tlsConfig) },
			dial:   func(address string) (net.Conn, error) { return dialQuic(address, tlsConfig) },
		}, nil

	default:
		return nil, errors.Errorf("unsupported protocol [%s]", protocol)
	}
}
