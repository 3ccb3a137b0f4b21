package importer

import (
	"context"
	"fmt"
	"time"

	"paybridge/internal/config"
	"paybridge/internal/mapping"
	"paybridge/internal/pipeline"
	"paybridge/internal/schema"
	"paybridge/internal/similarity"
)

// Coordinator 导入协调器
// 驱动 推荐 → 行处理 → 校验 → 覆盖决议 → 批量提交 的完整流程，
// 通过进度通道上报各阶段状态。
type Coordinator struct {
	registry  *schema.Registry
	matcher   config.MatcherConfig
	checker   pipeline.DuplicateChecker
	submitter pipeline.Submitter
}

// NewCoordinator 创建导入协调器
func NewCoordinator(registry *schema.Registry, matcher config.MatcherConfig, checker pipeline.DuplicateChecker, submitter pipeline.Submitter) *Coordinator {
	return &Coordinator{
		registry:  registry,
		matcher:   matcher,
		checker:   checker,
		submitter: submitter,
	}
}

// Options 导入选项
type Options struct {
	Matrix   pipeline.Matrix
	PeriodID string
	Policy   pipeline.OverwritePolicy
	// Mappings 为用户确认后的映射；为空时使用推荐器自动应用的结果
	Mappings []mapping.Rule
	// DryRun 为 true 时跳过重复检测与提交，仅做本地校验
	DryRun bool
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string    `json:"type"` // start/stage/warning/error/done
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Result 一次导入的阶段产物汇总
type Result struct {
	Mappings   []mapping.Rule              `json:"mappings"`
	Rows       []pipeline.ProcessedRow     `json:"rows"`
	Validation []pipeline.ValidationResult `json:"validation"`
	Actions    map[string]pipeline.Action  `json:"actions"`
	Outcome    *pipeline.ImportOutcome     `json:"outcome,omitempty"`
}

// Run 执行导入，返回进度通道
func (c *Coordinator) Run(ctx context.Context, opts Options) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		c.doRun(ctx, opts, progressChan)
	}()

	return progressChan
}

// doRun 执行导入逻辑
func (c *Coordinator) doRun(ctx context.Context, opts Options, progressChan chan ProgressEvent) {
	catalog := c.registry.Snapshot()

	c.sendProgress(progressChan, ProgressEvent{
		Type:    "start",
		Message: fmt.Sprintf("开始导入：%d 列 × %d 行", len(opts.Matrix.Headers), len(opts.Matrix.Rows)),
		Data: map[string]int{
			"columns": len(opts.Matrix.Headers),
			"rows":    len(opts.Matrix.Rows),
		},
		Timestamp: time.Now(),
	})

	// 阶段一：字段映射
	rules := opts.Mappings
	if len(rules) == 0 {
		composite, err := similarity.NewComposite(c.matcher.Scorer(), c.matcher.Weights,
			append(similarity.DefaultRules(), c.matcher.Rules...))
		if err != nil {
			c.sendError(progressChan, fmt.Sprintf("匹配配置无效: %v", err))
			return
		}
		recommender := mapping.NewRecommender(catalog, composite, c.matcher.MappingConfig())
		rules = recommender.Recommend(opts.Matrix.Headers)

		c.sendProgress(progressChan, ProgressEvent{
			Type:      "stage",
			Message:   fmt.Sprintf("字段映射完成：%d/%d 列自动匹配", countAutoApplied(rules), len(rules)),
			Data:      rules,
			Timestamp: time.Now(),
		})
	}

	// 必填字段必须全部有映射才能继续
	if issues := mapping.CheckCompleteness(rules, catalog); len(issues) > 0 {
		c.sendProgress(progressChan, ProgressEvent{
			Type:      "error",
			Message:   fmt.Sprintf("%d 个必填字段未映射，无法继续", len(issues)),
			Data:      issues,
			Timestamp: time.Now(),
		})
		return
	}

	// 阶段二：行处理
	processor := pipeline.NewProcessor(catalog)
	rows := processor.Process(opts.Matrix, rules)

	c.sendProgress(progressChan, ProgressEvent{
		Type:      "stage",
		Message:   fmt.Sprintf("行处理完成：%d 行", len(rows)),
		Timestamp: time.Now(),
	})

	// 阶段三：校验（干跑模式不做远端重复检测）
	checker := c.checker
	if opts.DryRun {
		checker = nil
	}
	validator := pipeline.NewValidator(catalog, checker, c.matcher.StrictCrossField)
	results, err := validator.Validate(ctx, opts.PeriodID, rows)
	if err != nil {
		c.sendError(progressChan, fmt.Sprintf("校验失败: %v", err))
		return
	}

	valid, invalid, warnings := summarize(results)
	c.sendProgress(progressChan, ProgressEvent{
		Type:    "stage",
		Message: fmt.Sprintf("校验完成：有效 %d，无效 %d，警告 %d", valid, invalid, warnings),
		Data: map[string]int{
			"valid":    valid,
			"invalid":  invalid,
			"warnings": warnings,
		},
		Timestamp: time.Now(),
	})

	// 阶段四：覆盖决议
	actions := pipeline.ResolveAll(opts.Policy, results)

	result := &Result{
		Mappings:   rules,
		Rows:       rows,
		Validation: results,
		Actions:    actions,
	}

	if opts.DryRun {
		c.sendProgress(progressChan, ProgressEvent{
			Type:      "done",
			Message:   "干跑完成，未提交",
			Data:      result,
			Timestamp: time.Now(),
		})
		return
	}

	// 阶段五：批量提交
	committer := pipeline.NewCommitter(c.submitter)
	outcome := committer.Commit(ctx, opts.PeriodID, opts.Policy, rows, results, actions)
	result.Outcome = outcome

	c.sendProgress(progressChan, ProgressEvent{
		Type: "done",
		Message: fmt.Sprintf("导入完成：成功 %d，失败 %d，跳过 %d",
			outcome.SuccessCount, outcome.ErrorCount,
			outcome.SkippedInvalid+outcome.SkippedByPolicy),
		Data:      result,
		Timestamp: time.Now(),
	})
}

func countAutoApplied(rules []mapping.Rule) int {
	count := 0
	for _, r := range rules {
		if r.AutoApplied {
			count++
		}
	}
	return count
}

func summarize(results []pipeline.ValidationResult) (valid, invalid, warnings int) {
	for _, res := range results {
		if res.Valid {
			valid++
		} else {
			invalid++
		}
		warnings += len(res.Warnings)
	}
	return
}

func (c *Coordinator) sendError(ch chan ProgressEvent, message string) {
	c.sendProgress(ch, ProgressEvent{
		Type:      "error",
		Message:   message,
		Timestamp: time.Now(),
	})
}

// sendProgress 发送进度事件
func (c *Coordinator) sendProgress(ch chan ProgressEvent, event ProgressEvent) {
	select {
	case ch <- event:
	default:
		// 通道已满，丢弃事件
	}
}
