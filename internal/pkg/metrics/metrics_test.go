package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	req := require.New(t)
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ConnectionOpened()
	c.ConnectionOpened()
	c.ConnectionClosed()
	c.SetOnlineUsers(3)
	c.MessagePersisted()
	c.MessageDelivered(2)
	c.MessagesSeen(4)
	c.TypingRelayed(true)
	c.TypingRelayed(false)
	c.TypingRelayed(false)
	c.EventRejected("2001")

	req.InDelta(1, testutil.ToFloat64(c.connections), 0)
	req.InDelta(3, testutil.ToFloat64(c.onlineUsers), 0)
	req.InDelta(1, testutil.ToFloat64(c.persisted), 0)
	req.InDelta(2, testutil.ToFloat64(c.delivered), 0)
	req.InDelta(4, testutil.ToFloat64(c.seen), 0)
	req.InDelta(2, testutil.ToFloat64(c.typing.WithLabelValues("dropped")), 0)
	req.InDelta(1, testutil.ToFloat64(c.rejected.WithLabelValues("2001")), 0)
}

func TestHandler(t *testing.T) {
	req := require.New(t)
	reg := prometheus.NewRegistry()
	NewCollector(reg).MessagePersisted()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	res, err := http.Get(srv.URL)
	req.NoError(err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	req.NoError(err)
	req.True(strings.Contains(string(body), "socialchat_messages_persisted_total 1"))
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	r.MessagePersisted()
	r.EventRejected("x")
}
