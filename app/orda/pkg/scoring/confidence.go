package scoring

import "github.com/iWorld-y/orda/app/orda/pkg/model"

// ConfidencePolicy 决定某一类别为空时的处理方式
type ConfidencePolicy int

const (
	// Strict 任一类别为空即为 0
	Strict ConfidencePolicy = iota
	// Fallback 只有一个类别为空时使用另一类别的平均分
	Fallback
)

// ParseConfidencePolicy 解析配置值，未知值按 Strict 处理
func ParseConfidencePolicy(s string) ConfidencePolicy {
	if s == "fallback" {
		return Fallback
	}
	return Strict
}

// Confidence 计算单条新闻的分析可信度
func Confidence(industries, pastIssues []model.Candidate) float64 {
	return ConfidenceWith(Strict, industries, pastIssues)
}

// ConfidenceWith 按指定策略计算可信度
func ConfidenceWith(policy ConfidencePolicy, industries, pastIssues []model.Candidate) float64 {
	switch {
	case len(industries) > 0 && len(pastIssues) > 0:
		return Round1((meanFinal(industries) + meanFinal(pastIssues)) / 2)
	case policy == Fallback && len(industries) > 0:
		return Round1(meanFinal(industries))
	case policy == Fallback && len(pastIssues) > 0:
		return Round1(meanFinal(pastIssues))
	default:
		return 0
	}
}

func meanFinal(cs []model.Candidate) float64 {
	var sum float64
	for _, c := range cs {
		sum += c.FinalScore
	}
	return sum / float64(len(cs))
}
