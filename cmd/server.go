package cmd

import (
	"tunex/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动 Tunex 服务器",
	Long:  `启动 Tunex 的 HTTP 服务，提供注册登录、上传、歌单、审核和通知推送接口`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func runServer() error {
	return server.Start(cfg)
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
