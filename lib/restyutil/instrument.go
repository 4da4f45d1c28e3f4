package restyutil

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// InstrumentOutput receives a full request/response transcript for
// every message a client exchanges.
type InstrumentOutput interface {
	Write(id string, contents string)
}

type instrumentCtx struct {
	output    InstrumentOutput
	idcounter *uint64
}

type messageIdKey struct{}

// InstrumentClient dumps every request/response pair the client makes
// to `output`. `output` can be nil, if it is, then the function is a
// no-op.
func InstrumentClient(client *resty.Client, output InstrumentOutput) {
	if output == nil {
		return
	}

	var idcounter uint64
	i := instrumentCtx{output: output, idcounter: &idcounter}
	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
}

func (i instrumentCtx) onBeforeRequest(cli *resty.Client, req *resty.Request) error {
	ctx := req.Context()
	messageId := strconv.FormatUint(atomic.AddUint64(i.idcounter, 1), 10)
	slog.DebugContext(
		ctx, "start request",
		"method", req.Method,
		"url", req.URL,
		"message_id", messageId,
	)
	req.SetContext(context.WithValue(ctx, messageIdKey{}, messageId))
	return nil
}

func (i instrumentCtx) onAfterResponse(cli *resty.Client, res *resty.Response) error {
	messageId, _ := res.Request.Context().Value(messageIdKey{}).(string)
	if messageId == "" {
		return nil
	}
	slog.DebugContext(
		res.Request.Context(), "finish request",
		"status", res.StatusCode(),
		"url", res.Request.URL,
		"message_id", messageId,
	)
	i.output.Write(messageId, formatHttpMessage(res))
	return nil
}
