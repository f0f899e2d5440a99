package cmd

import (
	internalApp "github.com/haierkeys/folio-lifecycle-service/internal/app"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables // 创建或更新数据表",
	RunE: withApp(func(cmd *cobra.Command, a *internalApp.App, args []string) error {
		if err := a.Migrate(); err != nil {
			return err
		}
		a.Logger().Info("database migrated", zap.String("type", a.Config().Database.Type))
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
