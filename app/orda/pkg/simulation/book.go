package simulation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	tickerSuffixKOSPI  = ".KS"
	tickerSuffixKOSDAQ = ".KQ"
	// DefaultMarketIndex KOSPI 指数
	DefaultMarketIndex = "^KS11"
	dateLayout         = "2006-01-02"
)

// Stock 股票代码与名称
type Stock struct {
	Code string `yaml:"code" json:"code"`
	Name string `yaml:"name" json:"name"`
}

// Scenario 历史情景
type Scenario struct {
	ID                string             `yaml:"id"`
	Name              string             `yaml:"name"`
	Description       string             `yaml:"description"`
	StartDate         string             `yaml:"start_date"`
	EndDate           string             `yaml:"end_date"`
	RelatedIndustries []string           `yaml:"related_industries"`
	Recommended       map[string][]Stock `yaml:"recommended_stocks"`
}

// Company 模拟投资可选的公司
type Company struct {
	Code       string `yaml:"code" json:"code"`
	Name       string `yaml:"name" json:"name"`
	Sector     string `yaml:"sector" json:"sector"`
	MarketCap  string `yaml:"market_cap" json:"market_cap"`
	PER        string `yaml:"per" json:"per"`
	PBR        string `yaml:"pbr" json:"pbr"`
	Price      int64  `yaml:"price" json:"price"`
	Change     string `yaml:"change" json:"change"`
	ChangeRate string `yaml:"change_rate" json:"change_rate"`
}

// Book 情景、代码映射与公司列表
type Book struct {
	Scenarios   []Scenario        `yaml:"scenarios"`
	Tickers     map[string]string `yaml:"tickers"`
	MarketIndex string            `yaml:"market_index"`
	Companies   []Company         `yaml:"companies"`
}

// DefaultBook 内置数据
func DefaultBook() *Book {
	return &Book{
		Scenarios: []Scenario{
			{
				ID:                "PN_006",
				Name:              "일본 반도체 소재 수출 규제",
				Description:       "일본의 반도체 핵심 소재 수출 규제로 국내 반도체 업계 타격 및 국산화 동력 발생",
				StartDate:         "2019-07-01",
				EndDate:           "2020-01-31",
				RelatedIndustries: []string{"반도체", "화학", "IT 서비스"},
				Recommended: map[string][]Stock{
					"반도체": {{Code: "005930", Name: "삼성전자"}, {Code: "000660", Name: "SK하이닉스"}},
				},
			},
			{
				ID:                "PN_005",
				Name:              "이란 솔레이마니 제거 사건",
				Description:       "미군의 이란 쿠드스 부대 사령관 제거로 중동 긴장 고조",
				StartDate:         "2020-01-01",
				EndDate:           "2020-04-30",
				RelatedIndustries: []string{"정유", "방위산업", "금융"},
				Recommended: map[string][]Stock{
					"정유":   {{Code: "010950", Name: "S-OIL"}},
					"방위산업": {{Code: "047810", Name: "한국항공우주"}},
				},
			},
			{
				ID:                "PN_004",
				Name:              "코로나19 재확산과 델타·오미크론 등장",
				Description:       "변이 바이러스로 리오프닝 지연, 비대면 산업 재조명",
				StartDate:         "2021-07-01",
				EndDate:           "2021-12-31",
				RelatedIndustries: []string{"운송·창고", "의료·정밀기기", "IT 서비스"},
				Recommended: map[string][]Stock{
					"IT 서비스":  {{Code: "035720", Name: "카카오"}},
					"의료·정밀기기": {{Code: "145020", Name: "휴젤"}},
				},
			},
		},
		Tickers: map[string]string{
			"005930": "005930" + tickerSuffixKOSPI,
			"000660": "000660" + tickerSuffixKOSPI,
			"051910": "051910" + tickerSuffixKOSPI,
			"010950": "010950" + tickerSuffixKOSPI,
			"047810": "047810" + tickerSuffixKOSPI,
			"105560": "105560" + tickerSuffixKOSPI,
			"035720": "035720" + tickerSuffixKOSPI,
			"145020": "145020" + tickerSuffixKOSDAQ,
		},
		MarketIndex: DefaultMarketIndex,
		Companies: []Company{
			{Code: "005930", Name: "삼성전자", Sector: "반도체", MarketCap: "447조원", PER: "15.2", PBR: "1.4", Price: 74800, Change: "+1200", ChangeRate: "+1.63%"},
			{Code: "000660", Name: "SK하이닉스", Sector: "반도체", MarketCap: "65조원", PER: "12.8", PBR: "1.1", Price: 89600, Change: "-800", ChangeRate: "-0.88%"},
			{Code: "010950", Name: "S-OIL", Sector: "정유", MarketCap: "8.2조원", PER: "8.5", PBR: "0.9", Price: 68900, Change: "+2100", ChangeRate: "+3.14%"},
			{Code: "047810", Name: "한국항공우주", Sector: "방위산업", MarketCap: "1.9조원", PER: "18.2", PBR: "2.1", Price: 42350, Change: "+1850", ChangeRate: "+4.57%"},
			{Code: "051910", Name: "LG화학", Sector: "화학", MarketCap: "27조원", PER: "22.1", PBR: "1.8", Price: 385000, Change: "-5000", ChangeRate: "-1.28%"},
			{Code: "035720", Name: "카카오", Sector: "IT 서비스", MarketCap: "25조원", PER: "N/A", PBR: "2.3", Price: 58400, Change: "+900", ChangeRate: "+1.56%"},
		},
	}
}

// LoadBook 从 YAML 加载，文件中缺少的部分使用内置数据；path 为空时直接返回内置数据
func LoadBook(path string) (*Book, error) {
	def := DefaultBook()
	if path == "" {
		return def, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var b Book
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(b.Scenarios) == 0 {
		b.Scenarios = def.Scenarios
	}
	if len(b.Tickers) == 0 {
		b.Tickers = def.Tickers
	}
	if b.MarketIndex == "" {
		b.MarketIndex = def.MarketIndex
	}
	if len(b.Companies) == 0 {
		b.Companies = def.Companies
	}
	if err := b.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &b, nil
}

func (b *Book) validate() error {
	seen := make(map[string]bool, len(b.Scenarios))
	for _, s := range b.Scenarios {
		if s.ID == "" {
			return fmt.Errorf("scenario without id")
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate scenario %s", s.ID)
		}
		seen[s.ID] = true
		if _, err := parseDate(s.StartDate); err != nil {
			return fmt.Errorf("scenario %s: %w", s.ID, err)
		}
	}
	return nil
}

func (b *Book) scenario(id string) (Scenario, bool) {
	for _, s := range b.Scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}
