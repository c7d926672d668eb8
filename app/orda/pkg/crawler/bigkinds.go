package crawler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/iWorld-y/orda/app/orda/pkg/logger"
	"github.com/iWorld-y/orda/app/orda/pkg/model"
	"github.com/iWorld-y/orda/app/orda/pkg/retry"
)

const bigKindsURL = "https://www.bigkinds.or.kr/"

const (
	issueAttempts       = 3
	maxConsecutiveFails = 3
)

// session 浏览器会话中的页面操作
type session interface {
	SelectCategory(ctx context.Context, category string) error
	ReadIssue(ctx context.Context, slide int) (title, content string, err error)
	Dismiss(ctx context.Context)
	Close()
}

// Options BigKinds 爬虫参数
type Options struct {
	Categories        []string
	IssuesPerCategory int
	Headless          bool
	// Timeout 单个元素的等待上限
	Timeout time.Duration
}

// BigKinds 基于无头 Chrome 的爬虫
type BigKinds struct {
	opts       Options
	newSession func(ctx context.Context) (session, error)
	// backoff 单条议题重试间隔
	backoff retry.Backoff
	now     func() time.Time
}

// NewBigKinds 创建爬虫
func NewBigKinds(opts Options) *BigKinds {
	if opts.IssuesPerCategory <= 0 {
		opts.IssuesPerCategory = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	b := &BigKinds{opts: opts, backoff: retry.Constant(time.Second), now: time.Now}
	b.newSession = func(ctx context.Context) (session, error) {
		return openChrome(ctx, opts)
	}
	return b
}

// Crawl 依次采集每个类别的议题，编号在全部类别间连续
func (b *BigKinds) Crawl(ctx context.Context) ([]model.Issue, error) {
	logger.Log.Infof("开始爬取 BigKinds (类别: %s)", strings.Join(b.opts.Categories, ", "))
	s, err := b.newSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}
	defer s.Close()

	var issues []model.Issue
	policy := retry.Policy{MaxAttempts: issueAttempts, Backoff: b.backoff}

	for _, category := range b.opts.Categories {
		if err := ctx.Err(); err != nil {
			return issues, err
		}
		if err := s.SelectCategory(ctx, category); err != nil {
			logger.Log.Errorf("类别 [%s] 打开失败: %v", category, err)
			continue
		}

		count, fails := 0, 0
		for slide := 1; slide <= b.opts.IssuesPerCategory; slide++ {
			type pair struct{ title, content string }
			p, err := retry.Value(ctx, policy, func(ctx context.Context) (pair, error) {
				title, content, err := s.ReadIssue(ctx, slide)
				if err == nil && strings.TrimSpace(title) == "" {
					err = fmt.Errorf("empty title")
				}
				if err != nil {
					s.Dismiss(ctx)
				}
				return pair{strings.TrimSpace(title), strings.TrimSpace(content)}, err
			})
			if err != nil {
				fails++
				logger.Log.Warnf("类别 [%s] 议题 %d 处理失败: %v", category, slide, err)
				if fails >= maxConsecutiveFails {
					logger.Log.Errorf("类别 [%s] 连续失败 %d 次，跳过", category, fails)
					break
				}
				continue
			}
			fails = 0
			s.Dismiss(ctx)

			num := len(issues) + 1
			issues = append(issues, model.Issue{
				Number:    num,
				Category:  category,
				Title:     p.title,
				Content:   p.content,
				CrawledAt: b.now(),
				Key:       fmt.Sprintf("%s_%d", category, num),
			})
			count++
		}
		logger.Log.Infof("类别 [%s] 采集完成: %d 条", category, count)
	}

	logger.Log.Infof("爬取完成，共 %d 条议题", len(issues))
	return issues, nil
}

// chromeSession chromedp 实现
type chromeSession struct {
	ctx     context.Context
	cancel  func()
	timeout time.Duration
}

func openChrome(ctx context.Context, opts Options) (*chromeSession, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s := &chromeSession{
		ctx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		timeout: opts.Timeout,
	}

	err := chromedp.Run(browserCtx,
		chromedp.Navigate(bigKindsURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(`Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`, nil),
		chromedp.Sleep(3*time.Second),
	)
	if err != nil {
		s.Close()
		return nil, err
	}
	logger.Log.Info("已打开 BigKinds 首页")
	return s, nil
}

// run 在浏览器上下文中执行动作，受 ctx 与单步超时共同约束
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	tctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(tctx, actions...)
}

func jsClick(sel string) chromedp.Action {
	return chromedp.Evaluate(fmt.Sprintf(`document.querySelector(%q).click()`, sel), nil)
}

func (s *chromeSession) SelectCategory(ctx context.Context, category string) error {
	sel := fmt.Sprintf(`a.issue-category[data-category="%s"]`, category)
	return s.run(ctx,
		chromedp.Evaluate(`window.scrollTo(0, 880)`, nil),
		chromedp.Sleep(time.Second),
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		jsClick(sel),
		chromedp.Sleep(4*time.Second),
	)
}

func (s *chromeSession) ReadIssue(ctx context.Context, slide int) (string, string, error) {
	sel := fmt.Sprintf(`div.swiper-slide:nth-child(%d) .issue-item-link`, slide)
	var title, content string
	err := s.run(ctx,
		chromedp.WaitReady(sel, chromedp.ByQuery),
		jsClick(sel),
		chromedp.Sleep(2*time.Second),
		chromedp.WaitVisible(`p.issuPopTitle`, chromedp.ByQuery),
		chromedp.Text(`p.issuPopTitle`, &title, chromedp.ByQuery),
		chromedp.Text(`p.pT20.issuPopContent`, &content, chromedp.ByQuery),
	)
	return title, content, err
}

func (s *chromeSession) Dismiss(ctx context.Context) {
	_ = s.run(ctx,
		chromedp.KeyEvent(kb.Escape),
		chromedp.Sleep(time.Second),
	)
}

func (s *chromeSession) Close() {
	s.cancel()
}
