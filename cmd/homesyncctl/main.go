// homesyncctl 运维命令行：数据库迁移、签发调试 Token、导入导出日程、冲突检查
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "homesyncctl",
		Usage: "家庭日程服务运维工具",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（为空时按默认路径查找）",
				EnvVars: []string{"HOMESYNC_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			tokenCommand(),
			exportCommand(),
			importCommand(),
			conflictsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "homesyncctl: %v\n", err)
		os.Exit(1)
	}
}
