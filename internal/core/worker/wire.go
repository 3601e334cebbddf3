package worker

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dep2p/go-pbsync/pkg/types"
)

// 行式协议谓词
const (
	verbHello = "HELLO"
	verbPull  = "PULL"

	replyOK  = "OK"
	replyErr = "ERR"
	replyEnd = "END"
)

var (
	// ErrHandshakeRejected 对端拒绝握手
	ErrHandshakeRejected = errors.New("handshake rejected")

	// ErrBadReply 对端响应不符合协议
	ErrBadReply = errors.New("malformed reply")

	errLineTooLong = errors.New("line too long")
)

// writeLine 写一行命令
func writeLine(w io.Writer, parts ...string) error {
	_, err := io.WriteString(w, strings.Join(parts, " ")+"\n")
	return err
}

// readLine 读一行响应（去除行尾换行，限制行长）
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	if len(line) > maxLineBytes {
		return "", errLineTooLong
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// handshake 在流上执行握手交换
func handshake(rw io.ReadWriter, profileID string, device types.DeviceID) error {
	if err := writeLine(rw, verbHello, profileID, device.String()); err != nil {
		return fmt.Errorf("send hello: %w", err)
	}

	reply, err := readLine(bufio.NewReaderSize(rw, maxLineBytes))
	if err != nil {
		return fmt.Errorf("read hello reply: %w", err)
	}

	switch {
	case reply == replyOK:
		return nil
	case strings.HasPrefix(reply, replyErr):
		return fmt.Errorf("%w: %s", ErrHandshakeRejected, strings.TrimSpace(reply[len(replyErr):]))
	default:
		return fmt.Errorf("%w: %q", ErrBadReply, reply)
	}
}

// pullEntries 在流上拉取一个来源的全部条目
//
// 每收到一条即回调 emit；对端以 END 行结束。
func pullEntries(rw io.ReadWriter, source string, emit func(types.ContactEntry) error) error {
	if err := writeLine(rw, verbPull, source); err != nil {
		return fmt.Errorf("send pull: %w", err)
	}

	r := bufio.NewReaderSize(rw, maxLineBytes)
	for {
		line, err := readLine(r)
		if err != nil {
			return fmt.Errorf("read entry: %w", err)
		}
		if line == replyEnd {
			return nil
		}

		name, number, ok := strings.Cut(line, ";")
		if !ok {
			return fmt.Errorf("%w: %q", ErrBadReply, line)
		}

		if err := emit(types.ContactEntry{
			Source: source,
			Name:   name,
			Number: number,
		}); err != nil {
			return err
		}
	}
}
