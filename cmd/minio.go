package cmd

import (
	"context"
	"fmt"

	"tunex/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix string
	minioStats  bool
	minioDelete bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶管理",
	Long:  `查看和清理MinIO存储桶中上传的音频文件。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		sink, err := storage.NewMinioSink(ctx, storage.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Region:    cfg.MinioRegion,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return fmt.Errorf("无法连接到MinIO: %w", err)
		}

		objects, err := sink.List(ctx, minioPrefix)
		if err != nil {
			return fmt.Errorf("列出文件失败: %w", err)
		}

		if minioDelete {
			if minioPrefix == "" {
				return fmt.Errorf("删除操作需要指定前缀")
			}
			for _, o := range objects {
				if err := sink.Remove(ctx, o.Key); err != nil {
					return fmt.Errorf("删除 %s 失败: %w", o.Key, err)
				}
			}
			fmt.Printf("已删除 %d 个文件\n", len(objects))
			return nil
		}

		var total int64
		for _, o := range objects {
			total += o.Size
			if !minioStats {
				fmt.Printf("%-60s %10s  %s\n", o.Key, storage.FormatSize(o.Size), o.LastModified.Format("2006-01-02 15:04:05"))
			}
		}
		fmt.Printf("\n共 %d 个文件, 总大小 %s\n", len(objects), storage.FormatSize(total))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤文件")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "只显示统计信息")
	minioCmd.Flags().BoolVarP(&minioDelete, "delete", "d", false, "删除前缀下的所有文件")

	minioCmd.Example = `  # 列出所有上传的音频
  tunex minio -p "audio/"

  # 显示统计信息
  tunex minio -s

  # 删除前缀下的所有文件
  tunex minio -d -p "audio/"`
}
