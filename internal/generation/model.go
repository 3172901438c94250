package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/dohr-michael/dayplan/internal/duration"
	"github.com/dohr-michael/dayplan/internal/models"
	"github.com/dohr-michael/dayplan/internal/tasks"
)

// ModelGenerator asks a chat model for the task list.
type ModelGenerator struct {
	chat model.BaseChatModel
}

// NewModelGenerator creates a generator backed by chat.
func NewModelGenerator(chat model.BaseChatModel) *ModelGenerator {
	return &ModelGenerator{chat: chat}
}

// Generate implements Generator.
func (m *ModelGenerator) Generate(ctx context.Context, req Request) (*Output, error) {
	if req.Context == nil {
		return nil, fmt.Errorf("model generator: missing goal context")
	}

	msgs := []*schema.Message{
		{Role: schema.System, Content: systemPrompt(req.Locale)},
		{Role: schema.User, Content: buildTaskPrompt(req)},
	}

	reply, err := m.chat.Generate(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("model generator: %w", models.HandleError(err))
	}
	if reply == nil {
		return nil, fmt.Errorf("model generator: empty reply")
	}

	return &Output{
		Tasks:        tasks.ParseTaskList(reply.Content),
		BasedOnGoals: req.Context.Titles(),
	}, nil
}

func systemPrompt(locale duration.Locale) string {
	if locale == duration.LocaleZH {
		return "你是一个专业的学习规划师。基于学生的OKR目标，为其生成今日具体的学习任务。"
	}
	return "You are a study planner. Turn a learner's OKR goals into concrete tasks for today."
}

func buildTaskPrompt(req Request) string {
	var sb strings.Builder
	prefs := req.Preferences
	zh := req.Locale == duration.LocaleZH

	if zh {
		sb.WriteString("学生的OKR信息：\n")
	} else {
		sb.WriteString("## Goals\n\n")
	}
	sb.WriteString(req.Context.Text())
	sb.WriteString("\n\n")

	if zh {
		sb.WriteString("任务生成规则：\n")
		sb.WriteString(fmt.Sprintf("1. 生成%d-%d条今日具体可执行的学习任务\n", MinTasks, prefs.TaskCount))
		sb.WriteString("2. 每个任务包含：类别标签、具体描述、预估时长\n")
		sb.WriteString("3. 优先推进进度较低的关键结果\n")
		sb.WriteString("4. 考虑目标截止日期，合理安排紧迫性\n")
		sb.WriteString("5. 每个任务时长控制在30分钟到3小时之间\n")
		sb.WriteString(fmt.Sprintf("6. 总时长不超过%d分钟\n\n", prefs.MaxDuration))
		sb.WriteString("输出格式示例：\n")
		sb.WriteString("1. 【理论学习】复习数据结构中的链表概念和操作 (1小时)\n")
		sb.WriteString("2. 【编程练习】完成10道链表相关的算法题 (2小时)\n\n")
		sb.WriteString("请直接输出任务列表，不要额外解释。每个任务单独一行，按重要性排序。")
		return sb.String()
	}

	sb.WriteString("## Rules\n\n")
	sb.WriteString(fmt.Sprintf("1. Produce %d to %d concrete tasks for today.\n", MinTasks, prefs.TaskCount))
	sb.WriteString("2. Each task has a category label, a description and an estimated duration.\n")
	sb.WriteString("3. Favor key results with the lowest progress.\n")
	sb.WriteString("4. Take target dates into account when ordering work.\n")
	sb.WriteString("5. Keep every task between 30 minutes and 3 hours.\n")
	sb.WriteString(fmt.Sprintf("6. Keep the total under %d minutes.\n\n", prefs.MaxDuration))
	sb.WriteString("## Format\n\n")
	sb.WriteString("1. [Coursework] Review linked list operations (1 hour)\n")
	sb.WriteString("2. [Skill Building] Solve 10 linked list problems (2 hours)\n\n")
	sb.WriteString("Output only the numbered list, one task per line, most important first.")
	return sb.String()
}
