package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"homesync/config"
	"homesync/internal/dto"
	"homesync/internal/model"
	"homesync/internal/repository"
	"homesync/internal/service"
	"homesync/pkg/database"
	"homesync/pkg/jwt"
	applogger "homesync/pkg/logger"
)

// deps 命令执行所需的公共依赖
type deps struct {
	cfg    *config.Config
	logger *zap.Logger
	svc    *service.Service
	close  func()
}

func loadConfig(c *cli.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openRuntime 连接数据库并组装 Service
func openRuntime(c *cli.Context) (*deps, error) {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, err
	}

	repo := repository.NewRepository(db)
	return &deps{
		cfg:    cfg,
		logger: logger,
		svc:    service.NewService(cfg, repo, logger),
		close: func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
			logger.Sync()
		},
	}, nil
}

// ── migrate ──

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "数据库迁移",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "应用全部未执行的迁移",
				Action: func(c *cli.Context) error {
					cfg, logger, err := loadConfig(c)
					if err != nil {
						return err
					}
					db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
					if err != nil {
						return err
					}
					sqlDB, err := db.DB()
					if err != nil {
						return err
					}
					defer sqlDB.Close()
					return database.RunMigrations(sqlDB, logger)
				},
			},
			{
				Name:  "down",
				Usage: "回滚最近的迁移",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "回滚步数"},
				},
				Action: func(c *cli.Context) error {
					cfg, logger, err := loadConfig(c)
					if err != nil {
						return err
					}
					db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
					if err != nil {
						return err
					}
					sqlDB, err := db.DB()
					if err != nil {
						return err
					}
					defer sqlDB.Close()
					return database.RollbackMigrations(sqlDB, c.Int("steps"), logger)
				},
			},
		},
	}
}

// ── token ──

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "为指定成员签发 Access Token（本地联调用）",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "member", Required: true, Usage: "成员 ID"},
			&cli.Int64Flag{Name: "household", Required: true, Usage: "家庭 ID"},
			&cli.StringFlag{Name: "role", Value: model.RoleMember, Usage: "角色: admin | member | viewer"},
			&cli.BoolFlag{Name: "json", Usage: "以 JSON 输出（含有效期）"},
		},
		Action: func(c *cli.Context) error {
			cfg, _, err := loadConfig(c)
			if err != nil {
				return err
			}
			switch c.String("role") {
			case model.RoleAdmin, model.RoleMember, model.RoleViewer:
			default:
				return fmt.Errorf("未知角色 %q", c.String("role"))
			}

			token, err := jwt.NewManager(&cfg.Auth).GenerateAccessToken(c.Int64("member"), c.Int64("household"), c.String("role"))
			if err != nil {
				return err
			}
			if !c.Bool("json") {
				fmt.Fprintln(c.App.Writer, token)
				return nil
			}
			return json.NewEncoder(c.App.Writer).Encode(dto.TokenResponse{
				AccessToken: token,
				ExpiresIn:   int(cfg.Auth.AccessTokenTTL.Seconds()),
			})
		},
	}
}

// ── export ──

var rangeFlags = []cli.Flag{
	&cli.Int64Flag{Name: "household", Required: true, Usage: "家庭 ID"},
	&cli.StringFlag{Name: "start", Required: true, Usage: "开始时间（Unix 秒或 2006-01-02T15:04，UTC）"},
	&cli.StringFlag{Name: "end", Required: true, Usage: "结束时间（Unix 秒或 2006-01-02T15:04，UTC）"},
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "导出日程",
		Subcommands: []*cli.Command{
			{
				Name:  "ics",
				Usage: "导出区间内事件为 iCalendar",
				Flags: append(append([]cli.Flag{}, rangeFlags...),
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "输出文件（为空时写到标准输出）"},
				),
				Action: func(c *cli.Context) error {
					start, end, err := parseRange(c)
					if err != nil {
						return err
					}
					rt, err := openRuntime(c)
					if err != nil {
						return err
					}
					defer rt.close()

					content, err := rt.svc.Export.ExportICS(c.Context, c.Int64("household"), start, end)
					if err != nil {
						return err
					}
					if out := c.String("out"); out != "" {
						return os.WriteFile(out, []byte(content), 0o644)
					}
					_, err = fmt.Fprint(c.App.Writer, content)
					return err
				},
			},
			{
				Name:  "month",
				Usage: "导出某月事件为 Excel",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "household", Required: true, Usage: "家庭 ID"},
					&cli.StringFlag{Name: "month", Required: true, Usage: "月份，如 2024-03"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "输出文件（为空时使用默认文件名）"},
				},
				Action: func(c *cli.Context) error {
					month, err := time.ParseInLocation("2006-01", c.String("month"), time.UTC)
					if err != nil {
						return fmt.Errorf("月份格式无效: %w", err)
					}
					rt, err := openRuntime(c)
					if err != nil {
						return err
					}
					defer rt.close()

					buf, filename, err := rt.svc.Export.ExportMonthXLSX(c.Context, c.Int64("household"), month.Unix())
					if err != nil {
						return err
					}
					out := c.String("out")
					if out == "" {
						out = filename
					}
					if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
						return err
					}
					rt.logger.Info("导出完成", zap.String("file", out))
					return nil
				},
			},
		},
	}
}

// ── conflicts ──

func conflictsCommand() *cli.Command {
	return &cli.Command{
		Name:  "conflicts",
		Usage: "检查候选时段的冲突，输出 JSON 报告",
		Flags: append(append([]cli.Flag{}, rangeFlags...),
			&cli.Int64Flag{Name: "exclude", Usage: "排除的事件 ID"},
		),
		Action: func(c *cli.Context) error {
			start, end, err := parseRange(c)
			if err != nil {
				return err
			}
			rt, err := openRuntime(c)
			if err != nil {
				return err
			}
			defer rt.close()

			req := &dto.CheckConflictRequest{StartTime: start, EndTime: end}
			if c.IsSet("exclude") {
				id := c.Int64("exclude")
				req.ExcludeEventID = &id
			}

			report, err := rt.svc.Conflict.DetectConflicts(c.Context, c.Int64("household"), req)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}

// ── import ──

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "导入外部日历",
		Subcommands: []*cli.Command{
			{
				Name:  "ics",
				Usage: "将 ICS 中的忙碌时段导入为成员的不可用时间",
				Flags: append(append([]cli.Flag{}, rangeFlags...),
					&cli.Int64Flag{Name: "member", Required: true, Usage: "成员 ID"},
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "本地 ICS 文件"},
					&cli.StringFlag{Name: "url", Usage: "ICS 订阅地址（支持 webcal://）"},
				),
				Action: func(c *cli.Context) error {
					start, end, err := parseRange(c)
					if err != nil {
						return err
					}
					var content io.ReadCloser
					switch {
					case c.String("file") != "":
						content, err = os.Open(c.String("file"))
					case c.String("url") != "":
						content, err = service.FetchICSContent(c.Context, c.String("url"))
					default:
						return fmt.Errorf("必须指定 --file 或 --url")
					}
					if err != nil {
						return err
					}
					defer content.Close()

					rt, err := openRuntime(c)
					if err != nil {
						return err
					}
					defer rt.close()

					memberID := c.Int64("member")
					result, err := rt.svc.Availability.ImportICS(c.Context, c.Int64("household"), memberID,
						&dto.ImportICSRequest{MemberID: &memberID, Start: start, End: end}, content)
					if err != nil {
						return err
					}
					rt.logger.Info("导入完成", zap.String("member", result.DisplayName), zap.Int("imported", result.Imported), zap.Int("skipped", result.Skipped))
					return nil
				},
			},
		},
	}
}

// ── 参数解析 ──

func parseRange(c *cli.Context) (int64, int64, error) {
	start, err := parseTime(c.String("start"))
	if err != nil {
		return 0, 0, fmt.Errorf("--start: %w", err)
	}
	end, err := parseTime(c.String("end"))
	if err != nil {
		return 0, 0, fmt.Errorf("--end: %w", err)
	}
	return start, end, nil
}

// parseTime 接受 Unix 秒或 UTC 下的 2006-01-02T15:04 / 2006-01-02
func parseTime(raw string) (int64, error) {
	if ts, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ts, nil
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, fmt.Errorf("无法解析时间 %q", raw)
}
