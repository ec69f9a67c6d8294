package transport

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/quic-go/quic-go"
)

const quicDialTimeout = 10 * time.Second

func listenQuic(address string, tlsConfig *tls.Config) (Accepter, error) {
	listener, err := quic.ListenAddr(address, tlsConfig, nil)
	if err != nil {
		return nil, errors.Wrap(err, "listen")
	}
	return &quicAccepter{listener}, nil
}

func dialQuic(address string, tlsConfig *tls.Config) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), quicDialTimeout)
	defer cancel()
	session, err := quic.DialAddr(ctx, address, tlsConfig, nil)
	if err != nil {
		return nil, errors.Wrap(err, "dial")
	}
	stream, err := session.OpenStreamSync(ctx)
	if err != nil {
		_ = session.CloseWithError(0, "")
		return nil, errors.Wrap(err, "stream")
	}
	return &quicConn{session, stream}, nil
}

type quicAccepter struct {
	listener *quic.Listener
}

// Accept waits for a connection and its first stream. The peer's stream only
// becomes visible once it has written to it.
func (self *quicAccepter) Accept() (net.Conn, error) {
	session, err := self.listener.Accept(context.Background())
	if err != nil {
		return nil, err
	}
	stream, err := session.AcceptStream(context.Background())
	if err != nil {
		_ = session.CloseWithError(0, "")
		return nil, err
	}
	return &quicConn{session, stream}, nil
}

func (self *quicAccepter) Close() error {
	return self.listener.Close()
}

func (self *quicAccepter) Addr() net.Addr {
	return self.listener.Addr()
}

// quicConn presents one bidirectional stream as a net.Conn.
type quicConn struct {
	session quic.Connection
	stream  quic.Stream
}

func (self *quicConn) Read(p []byte) (int, error) {
	return self.stream.Read(p)
}

func (self *quicConn) Write(p []byte) (int, error) {
	return self.stream.Write(p)
}

func (self *quicConn) Close() error {
	if err := self.stream.Close(); err != nil {
		return err
	}
	return self.session.CloseWithError(0, "")
}

func (self *quicConn) LocalAddr() net.Addr {
	return self.session.LocalAddr()
}

func (self *quicConn) RemoteAddr() net.Addr {
	return self.session.RemoteAddr()
}

func (self *quicConn) SetDeadline(t time.Time) error {
	return self.stream.SetDeadline(t)
}

func (self *quicConn) SetReadDeadline(t time.Time) error {
	return self.stream.SetReadDeadline(t)
}

func (self *quicConn) SetWriteDeadline(t time.Time) error {
	return self.stream.SetWriteDeadline(t)
}
