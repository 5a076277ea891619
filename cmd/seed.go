package cmd

import (
	"context"
	"fmt"

	"tunex/db"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "初始化数据库",
	Long:  `执行数据库迁移并写入角色、默认曲风和管理员账号。重复执行不会产生重复数据。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.ConnectGormDB(cfg); err != nil {
			return err
		}
		defer db.CloseGormDB()

		if err := db.Seed(context.Background(), db.GormDB, db.AdminAccount{
			Email:    cfg.AdminEmail,
			Username: cfg.AdminUsername,
			Password: cfg.AdminPassword,
		}); err != nil {
			return fmt.Errorf("seed failed: %w", err)
		}
		fmt.Printf("数据库初始化完成 (driver=%s, admin=%s)\n", cfg.DBDriver, cfg.AdminEmail)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
