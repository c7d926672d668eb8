package catalog

import (
	"strconv"
	"strings"

	"github.com/iWorld-y/orda/app/orda/pkg/model"
	"github.com/iWorld-y/orda/app/orda/pkg/vector"
)

// 向量文档中的字段标记
const (
	MarkerIndustryName   = "산업명:"
	MarkerIndustryDetail = "상세내용:"
	MarkerIssueName      = "이슈명:"
	MarkerIssuePeriod    = "기간:"
	MarkerIssueContent   = "내용:"
)

// Namespace 目录类别对应的索引命名空间
func Namespace(class model.EntityClass) string {
	if class == model.ClassPastIssue {
		return vector.NamespacePastIssue
	}
	return vector.NamespaceIndustry
}

// Documents 将目录渲染为向量文档
func (c *Catalog) Documents() []vector.Document {
	docs := make([]vector.Document, 0, len(c.entries))
	for i, e := range c.entries {
		var b strings.Builder
		md := map[string]string{"name": e.Name}
		id := e.ID
		if c.class == model.ClassPastIssue {
			b.WriteString(MarkerIssueName + " " + e.Name + "\n")
			b.WriteString(MarkerIssuePeriod + " " + e.Period + "\n")
			b.WriteString(MarkerIssueContent + " " + e.Description)
			if e.RelatedIndustries != "" {
				b.WriteString("\n관련 산업: " + e.RelatedIndustries)
			}
			md["period"] = e.Period
		} else {
			b.WriteString(MarkerIndustryName + " " + e.Name + "\n")
			b.WriteString(MarkerIndustryDetail + " " + e.Description)
		}
		if id == "" {
			id = string(c.class) + "-" + strconv.Itoa(i+1)
		}
		docs = append(docs, vector.Document{ID: id, Text: b.String(), Metadata: md})
	}
	return docs
}
