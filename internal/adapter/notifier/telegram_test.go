package notifier

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/tarvault/internal/config"
	"github.com/semmidev/tarvault/internal/domain"
)

type botServer struct {
	*httptest.Server
	mu       sync.Mutex
	getMe    int
	messages []url.Values
}

func newBotServer() *botServer {
	s := &botServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			s.mu.Lock()
			s.getMe++
			s.mu.Unlock()
			io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"tarvault","username":"tarvault_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			_ = r.ParseForm()
			s.mu.Lock()
			s.messages = append(s.messages, r.PostForm)
			s.mu.Unlock()
			io.WriteString(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`)
		default:
			io.WriteString(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
		}
	}))
	return s
}

func TestTelegram(t *testing.T) {
	Convey("Given a Telegram notifier", t, func() {
		server := newBotServer()
		defer server.Close()
		endpoint := server.URL + "/bot%s/%s"

		Convey("When the chat id is not numeric", func() {
			_, err := NewTelegram(&config.TelegramConfig{BotToken: "token", ChatID: "ops", APIEndpoint: endpoint})

			Convey("It should return error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "invalid telegram chat id")
			})
		})

		Convey("When it is created", func() {
			_, err := NewTelegram(&config.TelegramConfig{BotToken: "token", ChatID: "42", APIEndpoint: endpoint})

			Convey("It should not contact the Bot API yet", func() {
				So(err, ShouldBeNil)
				So(server.getMe, ShouldEqual, 0)
			})
		})

		Convey("When notifying runs", func() {
			n, err := NewTelegram(&config.TelegramConfig{BotToken: "token", ChatID: "42", APIEndpoint: endpoint})
			So(err, ShouldBeNil)

			err1 := n.Notify(context.Background(), domain.Run{
				Command:    "backup",
				BackupName: "db",
				Archive:    "db-20240101000000.tar.gz",
			})
			err2 := n.Notify(context.Background(), domain.Run{Command: "restore", BackupName: "db"})

			Convey("It should send each message to the chat with one bot", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(server.getMe, ShouldEqual, 1)
				So(len(server.messages), ShouldEqual, 2)
				So(server.messages[0].Get("chat_id"), ShouldEqual, "42")
				So(server.messages[0].Get("text"), ShouldContainSubstring, "db-20240101000000.tar.gz")
			})
		})

		Convey("When the Bot API is unreachable", func() {
			n, err := NewTelegram(&config.TelegramConfig{BotToken: "token", ChatID: "42", APIEndpoint: "http://127.0.0.1:1/bot%s/%s"})
			So(err, ShouldBeNil)

			err = n.Notify(context.Background(), domain.Run{Command: "backup", BackupName: "db"})

			Convey("It should fail the notification only", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "failed to create telegram bot")
			})
		})
	})
}

func TestMessage(t *testing.T) {
	Convey("Given run outcomes", t, func() {
		Convey("A failed run should mention the error", func() {
			msg := Message(domain.Run{Command: "restore", BackupName: "db", Err: errors.New("no backups found")})
			So(msg, ShouldContainSubstring, "restore failed")
			So(msg, ShouldContainSubstring, "no backups found")
		})

		Convey("A run without archive should say there was nothing to do", func() {
			So(Message(domain.Run{Command: "backup", BackupName: "db"}), ShouldContainSubstring, "Nothing to do")
		})

		Convey("A successful run should name the archive", func() {
			msg := Message(domain.Run{Command: "backup", BackupName: "db", Archive: "db-20240101000000.tar.gz"})
			So(msg, ShouldContainSubstring, "backup finished")
			So(msg, ShouldContainSubstring, "db-20240101000000.tar.gz")
		})
	})
}
