package engine

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/ZeraTS/ironbullet-sub001/internal/block"
)

func init() {
	register(block.TypeFtpRequest, handleFtpRequest)
	register(block.TypeSshRequest, handleSshRequest)
	register(block.TypeImapRequest, handleImapRequest)
	register(block.TypeSmtpRequest, handleSmtpRequest)
	register(block.TypePopRequest, handlePopRequest)
}

func dialTimeout(host string, port int, timeoutMs int64) (net.Conn, error) {
	if timeoutMs <= 0 {
		timeoutMs = 10000
	}
	return net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), time.Duration(timeoutMs)*time.Millisecond)
}

// textProtoSession is the small shared shape FTP/IMAP/POP drive: a
// line-oriented request/response exchange over a plain or TLS socket.
type textProtoSession struct {
	conn net.Conn
	r    *bufio.Reader
}

func newTextProtoSession(conn net.Conn) *textProtoSession {
	return &textProtoSession{conn: conn, r: bufio.NewReader(conn)}
}

func (s *textProtoSession) readLine() (string, error) {
	s.conn.SetReadDeadline(time.Now().Add(15 * time.Second))
	line, err := s.r.ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}

func (s *textProtoSession) send(cmd string) error {
	s.conn.SetWriteDeadline(time.Now().Add(15 * time.Second))
	_, err := s.conn.Write([]byte(cmd + "\r\n"))
	return err
}

func (s *textProtoSession) cmd(cmd string) (string, error) {
	if err := s.send(cmd); err != nil {
		return "", err
	}
	return s.readLine()
}

func handleFtpRequest(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.FtpRequestSettings)
	if !ok {
		return fmt.Errorf("ftprequest: settings type mismatch")
	}
	host := ec.Vars.Interpolate(settings.Host)
	conn, err := dialTimeout(host, portOrDefault(settings.Port, 21), settings.TimeoutMs)
	if err != nil {
		return fmt.Errorf("ftprequest: %w", err)
	}
	defer conn.Close()

	sess := newTextProtoSession(conn)
	var transcript strings.Builder

	banner, err := sess.readLine()
	if err != nil {
		return fmt.Errorf("ftprequest: reading banner: %w", err)
	}
	transcript.WriteString(banner + "\n")

	userResp, err := sess.cmd("USER " + ec.Vars.Interpolate(settings.User))
	if err != nil {
		return fmt.Errorf("ftprequest: %w", err)
	}
	transcript.WriteString(userResp + "\n")

	passResp, err := sess.cmd("PASS " + ec.Vars.Interpolate(settings.Pass))
	if err != nil {
		return fmt.Errorf("ftprequest: %w", err)
	}
	transcript.WriteString(passResp + "\n")

	if !strings.HasPrefix(passResp, "230") {
		ec.Vars.SetUser(settings.OutputVar, transcript.String(), settings.Capture)
		result.LogMessage = "ftprequest: authentication failed"
		return nil
	}

	if cmdText := ec.Vars.Interpolate(settings.Command); cmdText != "" {
		cmdResp, err := sess.cmd(cmdText)
		if err != nil {
			return fmt.Errorf("ftprequest: %w", err)
		}
		transcript.WriteString(cmdResp + "\n")
	}

	ec.Vars.SetUser(settings.OutputVar, transcript.String(), settings.Capture)
	result.LogMessage = "ftprequest: authenticated"
	return nil
}

func portOrDefault(port, def int) int {
	if port <= 0 {
		return def
	}
	return port
}

func handleSshRequest(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.SshRequestSettings)
	if !ok {
		return fmt.Errorf("sshrequest: settings type mismatch")
	}
	host := ec.Vars.Interpolate(settings.Host)
	timeout := time.Duration(settings.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	config := &ssh.ClientConfig{
		User:            ec.Vars.Interpolate(settings.User),
		Auth:            []ssh.AuthMethod{ssh.Password(ec.Vars.Interpolate(settings.Pass))},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // #nosec G106 -- credential checking, not a trusted session
		Timeout:         timeout,
	}

	client, err := ssh.Dial("tcp", net.JoinHostPort(host, strconv.Itoa(portOrDefault(settings.Port, 22))), config)
	if err != nil {
		ec.Vars.SetUser(settings.OutputVar, err.Error(), settings.Capture)
		result.LogMessage = "sshrequest: authentication failed"
		return nil
	}
	defer client.Close()

	output := "authenticated"
	if cmdText := ec.Vars.Interpolate(settings.Command); cmdText != "" {
		session, err := client.NewSession()
		if err != nil {
			return fmt.Errorf("sshrequest: %w", err)
		}
		defer session.Close()
		out, err := session.CombinedOutput(cmdText)
		if err != nil {
			output = fmt.Sprintf("command error: %v", err)
		} else {
			output = string(out)
		}
	}

	ec.Vars.SetUser(settings.OutputVar, output, settings.Capture)
	result.LogMessage = "sshrequest: authenticated"
	return nil
}

func handleImapRequest(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.ImapRequestSettings)
	if !ok {
		return fmt.Errorf("imaprequest: settings type mismatch")
	}
	host := ec.Vars.Interpolate(settings.Host)
	port := portOrDefault(settings.Port, 143)

	var conn net.Conn
	var err error
	if settings.UseTLS {
		dialer := &net.Dialer{Timeout: timeoutOrDefault(settings.TimeoutMs)}
		conn, err = tls.DialWithDialer(dialer, "tcp", net.JoinHostPort(host, strconv.Itoa(port)), &tls.Config{ServerName: host}) // #nosec G402
	} else {
		conn, err = dialTimeout(host, port, settings.TimeoutMs)
	}
	if err != nil {
		return fmt.Errorf("imaprequest: %w", err)
	}
	defer conn.Close()

	sess := newTextProtoSession(conn)
	var transcript strings.Builder

	greeting, err := sess.readLine()
	if err != nil {
		return fmt.Errorf("imaprequest: reading greeting: %w", err)
	}
	transcript.WriteString(greeting + "\n")

	loginResp, err := sess.cmd(fmt.Sprintf("a1 LOGIN %s %s", ec.Vars.Interpolate(settings.User), ec.Vars.Interpolate(settings.Pass)))
	if err != nil {
		return fmt.Errorf("imaprequest: %w", err)
	}
	transcript.WriteString(loginResp + "\n")

	if !strings.Contains(loginResp, "a1 OK") {
		ec.Vars.SetUser(settings.OutputVar, transcript.String(), settings.Capture)
		result.LogMessage = "imaprequest: authentication failed"
		return nil
	}

	switch settings.Op {
	case "SELECT":
		resp, err := sess.cmd(fmt.Sprintf("a2 SELECT %s", ec.Vars.Interpolate(settings.Mailbox)))
		if err != nil {
			return fmt.Errorf("imaprequest: %w", err)
		}
		transcript.WriteString(resp + "\n")
	case "FETCH", "SEARCH":
		resp, err := sess.cmd(fmt.Sprintf("a2 %s %s", settings.Op, ec.Vars.Interpolate(settings.Query)))
		if err != nil {
			return fmt.Errorf("imaprequest: %w", err)
		}
		transcript.WriteString(resp + "\n")
	}

	ec.Vars.SetUser(settings.OutputVar, transcript.String(), settings.Capture)
	result.LogMessage = "imaprequest: authenticated"
	return nil
}

func timeoutOrDefault(ms int64) time.Duration {
	if ms <= 0 {
		return 10 * time.Second
	}
	return time.Duration(ms) * time.Millisecond
}

// handleSmtpRequest uses net/smtp: the standard protocol client for a
// standard wire protocol, with no third-party SMTP library anywhere in the
// retrieval pack (see DESIGN.md's internal/engine entry).
func handleSmtpRequest(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.SmtpRequestSettings)
	if !ok {
		return fmt.Errorf("smtprequest: settings type mismatch")
	}
	host := ec.Vars.Interpolate(settings.Host)
	port := portOrDefault(settings.Port, 587)

	conn, err := dialTimeout(host, port, settings.TimeoutMs)
	if err != nil {
		return fmt.Errorf("smtprequest: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("smtprequest: %w", err)
	}
	defer client.Close()

	if settings.UseTLS {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil { // #nosec G402
			return fmt.Errorf("smtprequest: starttls: %w", err)
		}
	}

	user := ec.Vars.Interpolate(settings.User)
	pass := ec.Vars.Interpolate(settings.Pass)
	auth := smtp.PlainAuth("", user, pass, host)

	if err := client.Auth(auth); err != nil {
		ec.Vars.SetUser(settings.OutputVar, "535 authentication failed: "+err.Error(), settings.Capture)
		result.LogMessage = "smtprequest: authentication failed"
		return nil
	}

	status := "235 authentication succeeded"
	if to := ec.Vars.Interpolate(settings.To); to != "" {
		from := ec.Vars.Interpolate(settings.From)
		if err := client.Mail(from); err == nil {
			if err := client.Rcpt(to); err == nil {
				wc, err := client.Data()
				if err == nil {
					msg := fmt.Sprintf("Subject: %s\r\n\r\n%s", ec.Vars.Interpolate(settings.Subject), ec.Vars.Interpolate(settings.Body))
					wc.Write([]byte(msg))
					wc.Close()
					status += "; message sent"
				}
			}
		}
	}

	ec.Vars.SetUser(settings.OutputVar, status, settings.Capture)
	result.LogMessage = fmt.Sprintf("smtprequest: %s", status)
	return nil
}

func handlePopRequest(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.PopRequestSettings)
	if !ok {
		return fmt.Errorf("poprequest: settings type mismatch")
	}
	host := ec.Vars.Interpolate(settings.Host)
	port := portOrDefault(settings.Port, 110)

	var conn net.Conn
	var err error
	if settings.UseTLS {
		dialer := &net.Dialer{Timeout: timeoutOrDefault(settings.TimeoutMs)}
		conn, err = tls.DialWithDialer(dialer, "tcp", net.JoinHostPort(host, strconv.Itoa(port)), &tls.Config{ServerName: host}) // #nosec G402
	} else {
		conn, err = dialTimeout(host, port, settings.TimeoutMs)
	}
	if err != nil {
		return fmt.Errorf("poprequest: %w", err)
	}
	defer conn.Close()

	sess := newTextProtoSession(conn)
	var transcript strings.Builder

	greeting, err := sess.readLine()
	if err != nil {
		return fmt.Errorf("poprequest: reading greeting: %w", err)
	}
	transcript.WriteString(greeting + "\n")

	userResp, err := sess.cmd("USER " + ec.Vars.Interpolate(settings.User))
	if err != nil {
		return fmt.Errorf("poprequest: %w", err)
	}
	transcript.WriteString(userResp + "\n")

	passResp, err := sess.cmd("PASS " + ec.Vars.Interpolate(settings.Pass))
	if err != nil {
		return fmt.Errorf("poprequest: %w", err)
	}
	transcript.WriteString(passResp + "\n")

	if !strings.HasPrefix(passResp, "+OK") {
		ec.Vars.SetUser(settings.OutputVar, transcript.String(), settings.Capture)
		result.LogMessage = "poprequest: authentication failed"
		return nil
	}

	statResp, err := sess.cmd("STAT")
	if err == nil {
		transcript.WriteString(statResp + "\n")
	}

	if settings.Retrieve > 0 {
		retrResp, err := sess.cmd(fmt.Sprintf("RETR %d", settings.Retrieve))
		if err == nil {
			transcript.WriteString(retrResp + "\n")
			if settings.Delete {
				deleResp, err := sess.cmd(fmt.Sprintf("DELE %d", settings.Retrieve))
				if err == nil {
					transcript.WriteString(deleResp + "\n")
				}
			}
		}
	}

	ec.Vars.SetUser(settings.OutputVar, transcript.String(), settings.Capture)
	result.LogMessage = "poprequest: authenticated"
	return nil
}
