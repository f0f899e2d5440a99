package cmd

import (
	"strconv"

	internalApp "github.com/haierkeys/folio-lifecycle-service/internal/app"
	"github.com/haierkeys/folio-lifecycle-service/internal/domain"
	"github.com/haierkeys/folio-lifecycle-service/internal/dto"
	"github.com/haierkeys/folio-lifecycle-service/pkg/code"

	"github.com/spf13/cobra"
)

type portfolioFlags struct {
	requester      string // Acting user // 当前操作用户
	create         dto.PortfolioCreateRequest
	title          string
	contentFile    string
	customizations string
	seoFile        string
}

var pf = new(portfolioFlags)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Manage portfolio documents // 管理作品集文档",
}

var portfolioCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a portfolio // 创建作品集",
	RunE: withApp(func(cmd *cobra.Command, a *internalApp.App, args []string) error {
		p, err := a.PortfolioService.Create(cmd.Context(), &pf.create)
		if err != nil {
			return err
		}
		return printJSON(cmd, p)
	}),
}

var portfolioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List portfolios of the acting user // 列出当前用户的作品集",
	RunE: withApp(func(cmd *cobra.Command, a *internalApp.App, args []string) error {
		list, err := a.PortfolioService.List(cmd.Context(), pf.requester)
		if err != nil {
			return err
		}
		return printJSON(cmd, list)
	}),
}

var portfolioUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Patch title, content, customizations or SEO settings // 部分更新作品集",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *internalApp.App, args []string) error {
		params := &dto.PortfolioUpdateRequest{}
		if cmd.Flags().Changed("title") {
			params.Title = &pf.title
		}
		if pf.contentFile != "" {
			params.Content = new(domain.Content)
			if err := readJSONFile(cmd, pf.contentFile, params.Content); err != nil {
				return err
			}
		}
		if pf.customizations != "" {
			params.Customizations = new(domain.Customizations)
			if err := readJSONFile(cmd, pf.customizations, params.Customizations); err != nil {
				return err
			}
		}
		if pf.seoFile != "" {
			params.SEOSettings = new(domain.Document)
			if err := readJSONFile(cmd, pf.seoFile, params.SEOSettings); err != nil {
				return err
			}
		}

		p, err := a.PortfolioService.Update(cmd.Context(), args[0], pf.requester, params)
		if err != nil {
			return err
		}
		return printJSON(cmd, p)
	}),
}

var portfolioPublishCmd = &cobra.Command{
	Use:   "publish <id>",
	Short: "Toggle the publish state // 切换发布状态",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *internalApp.App, args []string) error {
		r, err := a.PortfolioService.TogglePublish(cmd.Context(), args[0], pf.requester)
		if err != nil {
			return err
		}
		return printJSON(cmd, r)
	}),
}

var portfolioDuplicateCmd = &cobra.Command{
	Use:   "duplicate <id>",
	Short: "Create an unpublished copy // 创建未发布副本",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *internalApp.App, args []string) error {
		p, err := a.PortfolioService.Duplicate(cmd.Context(), args[0], pf.requester)
		if err != nil {
			return err
		}
		return printJSON(cmd, p)
	}),
}

var portfolioRestoreCmd = &cobra.Command{
	Use:   "restore <id> <version>",
	Short: "Restore a history version // 恢复历史版本",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, a *internalApp.App, args []string) error {
		version, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return code.ErrorInvalidParams.WithDetails("version must be an integer")
		}
		p, err := a.PortfolioService.Restore(cmd.Context(), args[0], pf.requester, version)
		if err != nil {
			return err
		}
		return printJSON(cmd, p)
	}),
}

var portfolioHistoryCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "List archived versions // 列出历史版本",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *internalApp.App, args []string) error {
		list, err := a.PortfolioService.History(cmd.Context(), args[0], pf.requester)
		if err != nil {
			return err
		}
		return printJSON(cmd, list)
	}),
}

var portfolioViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View a portfolio by id // 通过 ID 查看作品集",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *internalApp.App, args []string) error {
		p, err := a.PortfolioService.ViewByID(cmd.Context(), args[0], pf.requester)
		if err != nil {
			return err
		}
		return printJSON(cmd, p)
	}),
}

var portfolioViewPublicCmd = &cobra.Command{
	Use:   "view-public <slug>",
	Short: "View a published portfolio by slug // 通过别名查看已发布作品集",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *internalApp.App, args []string) error {
		p, err := a.PortfolioService.ViewPublic(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, p)
	}),
}

var portfolioDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a portfolio // 删除作品集",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *internalApp.App, args []string) error {
		if err := a.PortfolioService.Delete(cmd.Context(), args[0], pf.requester); err != nil {
			return err
		}
		return printJSON(cmd, map[string]string{"deleted": args[0]})
	}),
}

func init() {
	create := portfolioCreateCmd.Flags()
	create.StringVar(&pf.create.OwnerID, "owner", "", "owner id")
	create.StringVar(&pf.create.Title, "title", "", "portfolio title")
	create.StringVar(&pf.create.TemplateID, "template", "", "template id")

	update := portfolioUpdateCmd.Flags()
	update.StringVar(&pf.title, "title", "", "new title")
	update.StringVar(&pf.contentFile, "content", "", "content JSON file, - for stdin")
	update.StringVar(&pf.customizations, "customizations", "", "customizations JSON file, - for stdin")
	update.StringVar(&pf.seoFile, "seo", "", "SEO settings JSON file, - for stdin")

	for _, c := range []*cobra.Command{
		portfolioListCmd, portfolioUpdateCmd, portfolioPublishCmd, portfolioDuplicateCmd,
		portfolioRestoreCmd, portfolioHistoryCmd, portfolioDeleteCmd,
	} {
		c.Flags().StringVar(&pf.requester, "as", "", "acting user id")
		_ = c.MarkFlagRequired("as")
	}
	portfolioViewCmd.Flags().StringVar(&pf.requester, "as", "", "viewer id, empty for anonymous")

	portfolioCmd.AddCommand(
		portfolioCreateCmd, portfolioListCmd, portfolioUpdateCmd, portfolioPublishCmd,
		portfolioDuplicateCmd, portfolioRestoreCmd, portfolioHistoryCmd,
		portfolioViewCmd, portfolioViewPublicCmd, portfolioDeleteCmd,
	)
	rootCmd.AddCommand(portfolioCmd)
}
