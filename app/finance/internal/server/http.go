package server

import (
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/omni_briefing/app/finance/internal/service"
	"github.com/iWorld-y/omni_briefing/app/finance/pkg/config"
)

// maxArgsBytes 工具参数体上限
const maxArgsBytes = 1 << 20

// CallReply 工具调用结果
type CallReply struct {
	Tool   string `json:"tool"`
	Result string `json:"result"`
}

func NewHTTPServer(c config.ServerConfig, s *service.FinanceService, a *service.ArchiveService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
	}
	if c.Addr != "" {
		opts = append(opts, http.Address(c.Addr))
	}
	if c.Timeout != "" {
		if d, err := time.ParseDuration(c.Timeout); err == nil {
			opts = append(opts, http.Timeout(d))
		}
	}

	srv := http.NewServer(opts...)
	registerTools(srv, s)
	registerReports(srv, a)
	log.NewHelper(logger).Infof("registered %d tools", len(s.Tools()))
	return srv
}

func registerTools(srv *http.Server, s *service.FinanceService) {
	r := srv.Route("/")

	r.GET("/tools", func(ctx http.Context) error {
		return ctx.Result(nethttp.StatusOK, s.Tools())
	})

	r.POST("/tools/{name}", func(ctx http.Context) error {
		name := ctx.Vars().Get("name")
		body, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxArgsBytes))
		if err != nil {
			return errors.BadRequest("INVALID_ARGUMENTS", err.Error())
		}

		h := ctx.Middleware(func(ctx context.Context, req any) (any, error) {
			return s.Call(ctx, name, req.(json.RawMessage))
		})
		out, err := h(ctx, json.RawMessage(body))
		if err != nil {
			return err
		}
		return ctx.Result(nethttp.StatusOK, &CallReply{Tool: name, Result: out.(string)})
	})
}

func registerReports(srv *http.Server, a *service.ArchiveService) {
	r := srv.Route("/")

	r.GET("/reports", func(ctx http.Context) error {
		q := ctx.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		pageSize, _ := strconv.Atoi(q.Get("page_size"))

		reply, err := a.ListReports(ctx, page, pageSize)
		if err != nil {
			return err
		}
		return ctx.Result(nethttp.StatusOK, reply)
	})

	r.GET("/reports/{id}", func(ctx http.Context) error {
		id, err := strconv.Atoi(ctx.Vars().Get("id"))
		if err != nil {
			return errors.BadRequest("INVALID_ARGUMENTS", "report id must be an integer")
		}

		report, err := a.GetReport(ctx, id)
		if err != nil {
			return err
		}
		return ctx.Result(nethttp.StatusOK, report)
	})
}
