package cmd

import (
	"os"
	"strconv"

	internalApp "github.com/haierkeys/folio-lifecycle-service/internal/app"
	"github.com/haierkeys/folio-lifecycle-service/internal/dto"
	"github.com/haierkeys/folio-lifecycle-service/pkg/code"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// templateCatalog YAML file layout accepted by "template import"
// templateCatalog "template import" 接受的 YAML 文件格式
type templateCatalog struct {
	Templates []dto.TemplateCreateRequest `yaml:"templates"`
}

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage the template catalog // 管理模板目录",
}

var templateImportSkipExisting bool

var templateImportCmd = &cobra.Command{
	Use:   "import <catalog.yaml>",
	Short: "Import templates from a YAML catalog // 从 YAML 目录导入模板",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *internalApp.App, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return errors.Wrapf(err, "read %s", args[0])
		}
		var catalog templateCatalog
		if err := yaml.Unmarshal(data, &catalog); err != nil {
			return errors.Wrapf(err, "decode %s", args[0])
		}

		created := make([]*dto.TemplateDTO, 0, len(catalog.Templates))
		for i := range catalog.Templates {
			t, err := a.TemplateService.Create(cmd.Context(), &catalog.Templates[i])
			if err != nil {
				if templateImportSkipExisting && code.KindOf(err) == code.KindConflict {
					a.Logger().Warn("template already exists, skipped", zap.String("name", catalog.Templates[i].Name))
					continue
				}
				return err
			}
			created = append(created, t)
		}
		return printJSON(cmd, created)
	}),
}

var templateListParams dto.TemplateListRequest

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active templates // 列出有效模板",
	RunE: withApp(func(cmd *cobra.Command, a *internalApp.App, args []string) error {
		list, err := a.TemplateService.List(cmd.Context(), &templateListParams)
		if err != nil {
			return err
		}
		return printJSON(cmd, list)
	}),
}

var templateGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a template and record a view // 查看模板并记录浏览",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *internalApp.App, args []string) error {
		t, err := a.TemplateService.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, t)
	}),
}

var templateRateCmd = &cobra.Command{
	Use:   "rate <id> <1-5>",
	Short: "Rate a template // 为模板评分",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, a *internalApp.App, args []string) error {
		rating, err := strconv.Atoi(args[1])
		if err != nil {
			return code.ErrorInvalidRating.WithDetails(args[1])
		}
		t, err := a.TemplateService.Rate(cmd.Context(), args[0], rating)
		if err != nil {
			return err
		}
		return printJSON(cmd, t)
	}),
}

var templateDeactivateCmd = &cobra.Command{
	Use:   "deactivate <id>",
	Short: "Hide a template from the catalog // 从目录中隐藏模板",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *internalApp.App, args []string) error {
		t, err := a.TemplateService.Deactivate(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, t)
	}),
}

func init() {
	templateImportCmd.Flags().BoolVar(&templateImportSkipExisting, "skip-existing", false, "skip templates whose name already exists")
	templateListCmd.Flags().StringVar(&templateListParams.Category, "category", "", "filter by category")
	templateListCmd.Flags().StringVar(&templateListParams.SortBy, "sort", "popularity", "popularity|usage|rating|newest")

	templateCmd.AddCommand(templateImportCmd, templateListCmd, templateGetCmd, templateRateCmd, templateDeactivateCmd)
	rootCmd.AddCommand(templateCmd)
}
