package vector

import (
	"fmt"
	"strings"
	"unicode"
)

// Splitter 按字符数切分文档，相邻块之间保留重叠
type Splitter struct {
	Size    int
	Overlap int
}

// DefaultSplitter 默认切分参数
var DefaultSplitter = Splitter{Size: 500, Overlap: 50}

// Split 切分文本，尽量在空白处断开
func (s Splitter) Split(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	size := s.Size
	if size <= 0 {
		size = DefaultSplitter.Size
	}
	overlap := s.Overlap
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	if len(runes) <= size {
		return []string{string(runes)}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, strings.TrimSpace(string(runes[start:])))
			break
		}
		// 回退到最近的空白，避免截断单词
		cut := end
		for i := end; i > start+size/2; i-- {
			if unicode.IsSpace(runes[i-1]) {
				cut = i
				break
			}
		}
		chunks = append(chunks, strings.TrimSpace(string(runes[start:cut])))
		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// SplitDocuments 切分文档，块 ID 为 <原 ID>#<序号>，元数据复制到每个块
func (s Splitter) SplitDocuments(docs []Document) []Document {
	var out []Document
	for _, d := range docs {
		chunks := s.Split(d.Text)
		if len(chunks) == 1 {
			out = append(out, d)
			continue
		}
		for i, c := range chunks {
			md := make(map[string]string, len(d.Metadata))
			for k, v := range d.Metadata {
				md[k] = v
			}
			out = append(out, Document{
				ID:       fmt.Sprintf("%s#%d", d.ID, i),
				Text:     c,
				Metadata: md,
			})
		}
	}
	return out
}
