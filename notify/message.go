package notify

import (
	"fmt"
	"strings"

	"github.com/devgate/swagsync/synclog"
)

// BuildSyncSuccessMessage renders the markdown summary table for a
// successful sync. The column labels match the portal's Chinese UI.
// importErrors carries partial-import problems reported by the destination
// alongside an overall success.
func BuildSyncSuccessMessage(projectLabel string, counters synclog.Counters, importErrors []string) Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### ✅ 接口文档同步成功\n\n**项目**: %s\n\n", projectLabel)
	sb.WriteString("| 类型 | 新增 | 更新 | 忽略 |\n")
	sb.WriteString("| --- | --- | --- | --- |\n")
	fmt.Fprintf(&sb, "| 接口 | %d | %d | %d |\n", counters.EndpointCreated, counters.EndpointUpdated, counters.EndpointIgnored)
	fmt.Fprintf(&sb, "| 数据模型 | %d | %d | %d |\n", counters.SchemaCreated, counters.SchemaUpdated, counters.SchemaIgnored)

	if len(importErrors) > 0 {
		sb.WriteString("\n**部分导入错误**:\n")
		for _, msg := range importErrors {
			fmt.Fprintf(&sb, "- %s\n", msg)
		}
	}

	return MarkdownMessage("接口文档同步成功", sb.String())
}

// BuildSyncFailureMessage renders the failure notification for one sync
// attempt.
func BuildSyncFailureMessage(projectLabel, errorMessage string) Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### ❌ 接口文档同步失败\n\n**项目**: %s\n\n", projectLabel)
	fmt.Fprintf(&sb, "**原因**: %s\n", errorMessage)
	return MarkdownMessage("接口文档同步失败", sb.String())
}

// DiffSummary mirrors the diff engine's counters for notification rendering.
// It is a separate type so the mock-notify endpoint can accept it directly.
type DiffSummary struct {
	BeforeTotal int `json:"beforeTotal"`
	AfterTotal  int `json:"afterTotal"`
	Added       int `json:"added"`
	Removed     int `json:"removed"`
	Changed     int `json:"changed"`
	Unchanged   int `json:"unchanged"`
}

// maxDiffRows bounds how many operation keys a diff message lists per bucket.
const maxDiffRows = 10

// BuildDiffMessage renders a markdown summary of a document diff. The row
// lists are operation keys ("GET /path"); each bucket is truncated to
// maxDiffRows entries.
func BuildDiffMessage(title string, summary DiffSummary, added, removed, changed []string) Message {
	if title == "" {
		title = "接口文档变更"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "### 📋 %s\n\n", title)
	fmt.Fprintf(&sb, "**接口总数**: %d → %d\n\n", summary.BeforeTotal, summary.AfterTotal)
	fmt.Fprintf(&sb, "| 新增 | 删除 | 变更 | 未变 |\n| --- | --- | --- | --- |\n| %d | %d | %d | %d |\n",
		summary.Added, summary.Removed, summary.Changed, summary.Unchanged)

	writeRows(&sb, "新增接口", added)
	writeRows(&sb, "删除接口", removed)
	writeRows(&sb, "变更接口", changed)

	return MarkdownMessage(title, sb.String())
}

func writeRows(sb *strings.Builder, heading string, rows []string) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n**%s**:\n", heading)
	for i, row := range rows {
		if i == maxDiffRows {
			fmt.Fprintf(sb, "- ... 共 %d 条\n", len(rows))
			return
		}
		fmt.Fprintf(sb, "- %s\n", row)
	}
}
