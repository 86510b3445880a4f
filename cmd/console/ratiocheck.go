/*
 * @Description: ratiocheck 子命令，离线检查图片是否符合表单分组的比例要求
 * @Author: 安知鱼
 * @Date: 2026-10-19 13:11:32
 * @LastEditTime: 2026-10-19 13:11:32
 * @LastEditors: 安知鱼
 */
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/anzhiyu-c/anheyu-fm-console/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/content"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/intake"
)

// CheckResult 是单个文件的检查结果
type CheckResult struct {
	File     string
	Width    int
	Height   int
	Measured string
	Label    string
	Err      error
}

// OK 表示文件可被该分组直接接收
func (r CheckResult) OK() bool {
	return r.Err == nil && r.Label != ""
}

func newRatioCheckCmd() *cobra.Command {
	var (
		kind       string
		group      string
		presetFile string
	)

	cmd := &cobra.Command{
		Use:     "ratiocheck [flags] <image>...",
		Short:   "检查图片宽高比是否匹配表单分组的目标比例",
		Example: `  anheyu-fm-console ratiocheck --form broadcast --group broadcast_images cover.jpg banner.png`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets, err := intake.NewPresetStore(presetFile, content.DefaultPresets())
			if err != nil {
				return err
			}
			ratios, err := presets.Ratios(kind, group)
			if err != nil {
				return err
			}

			results := CheckFiles(cmd.Context(), intake.NewImagingDecoder(), ratios, args)
			failed := PrintResults(cmd.OutOrStdout(), results)
			if failed > 0 {
				return fmt.Errorf("%d 个文件不符合 %s 的比例要求", failed, intake.SupportsDescription(ratios))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "form", "f", string(content.KindBroadcast), "表单类型")
	cmd.Flags().StringVarP(&group, "group", "g", "cover_image", "图片分组")
	cmd.Flags().StringVarP(&presetFile, "presets", "p", "", "比例预设 YAML 文件，留空使用内置默认值")

	return cmd
}

// CheckFiles 逐个解码文件并匹配目标比例
func CheckFiles(ctx context.Context, decoder intake.Decoder, ratios []model.TargetRatio, paths []string) []CheckResult {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]CheckResult, 0, len(paths))
	for _, p := range paths {
		res := CheckResult{File: filepath.Base(p)}
		data, err := os.ReadFile(p)
		if err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}
		decoded, err := decoder.Decode(ctx, data)
		if err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}
		res.Width, res.Height = decoded.Width, decoded.Height
		res.Measured = intake.FormatRatio(decoded.Ratio())
		res.Label, _ = intake.DetectLabel(decoded.Ratio(), ratios)
		results = append(results, res)
	}
	return results
}

// PrintResults 以表格输出结果，返回不符合要求的文件数
func PrintResults(w io.Writer, results []CheckResult) int {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSIZE\tRATIO\tMATCH")
	failed := 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			fmt.Fprintf(tw, "%s\t-\t-\t错误: %v\n", r.File, r.Err)
		case r.Label == "":
			failed++
			fmt.Fprintf(tw, "%s\t%dx%d\t%s\t✗\n", r.File, r.Width, r.Height, r.Measured)
		default:
			fmt.Fprintf(tw, "%s\t%dx%d\t%s\t✓ %s\n", r.File, r.Width, r.Height, r.Measured, r.Label)
		}
	}
	tw.Flush()
	return failed
}
