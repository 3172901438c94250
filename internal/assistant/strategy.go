package assistant

import (
	"regexp"
	"strings"

	"github.com/dohr-michael/dayplan/internal/duration"
)

// ResponseStrategy produces the templated reply used when no backend
// answered.
type ResponseStrategy interface {
	Respond(message string, locale duration.Locale) string
}

// FixedStrategy always answers with Text.
type FixedStrategy struct {
	Text string
}

// Respond implements ResponseStrategy.
func (s FixedStrategy) Respond(string, duration.Locale) string { return s.Text }

type topic struct {
	keywords []string
	en, zh   string
}

// topics are checked in order; the first match wins.
var topics = []topic{
	{
		keywords: []string{"recursion", "recursive", "递归"},
		en:       "Recursion is a function calling itself. Every recursive function needs a base case that stops the calls and a recursive case that moves toward it. Try writing factorial(n) and trace factorial(4) by hand.",
		zh:       "递归是函数调用自身的算法思想。每个递归函数都需要终止条件和逐步逼近终止条件的递归情况。试着实现 factorial(n) 并手动推演 factorial(4)。",
	},
	{
		keywords: []string{"data structure", "data structures", "数据结构"},
		en:       "Start with the linear structures (arrays, linked lists, stacks, queues), then trees, graphs and hash tables. For each one, learn its operations and their time complexity, then implement it yourself.",
		zh:       "先掌握线性结构（数组、链表、栈、队列），再学习树、图和哈希表。理解每种结构的基本操作及其时间复杂度，然后动手实现。",
	},
	{
		keywords: []string{"complexity", "big o", "时间复杂度", "空间复杂度", "算法复杂度"},
		en:       "Complexity analysis counts the basic operations as the input grows: O(1) array access, O(log n) binary search, O(n) a single pass, O(n log n) merge sort, O(n²) nested loops. Always reason about the worst case first.",
		zh:       "复杂度分析关注输入规模增长时基本操作的次数：O(1) 随机访问，O(log n) 二分查找，O(n) 单次遍历，O(n log n) 归并排序，O(n²) 双重循环。先分析最坏情况。",
	},
	{
		keywords: []string{"javascript", "js", "frontend", "前端"},
		en:       "For JavaScript, focus on scope (let, const, var), closures, promises and async/await. Build a small project to practice each concept.",
		zh:       "学习 JavaScript 时重点掌握作用域（let、const、var）、闭包、Promise 和 async/await，并通过小项目练习每个概念。",
	},
	{
		keywords: []string{"machine learning", "ml", "ai", "机器学习"},
		en:       "Begin machine learning with linear regression and classification, learn how to split training and test data, and measure your models before tuning them.",
		zh:       "机器学习可以从线性回归和分类入门，学会划分训练集和测试集，并在调参前先评估模型。",
	},
	{
		keywords: []string{"database", "sql", "数据库"},
		en:       "For databases, practice SELECT with JOIN and GROUP BY, learn normalization, and look at query plans to see when an index helps.",
		zh:       "学习数据库时多练习 JOIN 和 GROUP BY 查询，理解范式设计，并通过执行计划观察索引的作用。",
	},
	{
		keywords: []string{"hello", "hi", "hey", "你好"},
		en:       "Hi! I'm your study assistant. Ask me about algorithms, data structures, programming languages, databases or study methods.",
		zh:       "你好！我是你的学习助手。可以问我算法、数据结构、编程语言、数据库或学习方法相关的问题。",
	},
}

const (
	defaultEN = "Thanks for your question. I can help with recursion, data structures, JavaScript, machine learning, databases and complexity analysis. Try rephrasing with one of these keywords."
	defaultZH = "感谢提问！我可以帮助解答递归、数据结构、JavaScript、机器学习、数据库和算法复杂度等问题。请尝试用这些关键词重新描述。"
)

// KeywordStrategy picks a templated reply from keywords in the message.
// ASCII keywords match whole words only.
type KeywordStrategy struct{}

var wordRe = regexp.MustCompile(`[a-z0-9]+`)

// Respond implements ResponseStrategy.
func (KeywordStrategy) Respond(message string, locale duration.Locale) string {
	lower := strings.ToLower(message)
	words := " " + strings.Join(wordRe.FindAllString(lower, -1), " ") + " "

	for _, t := range topics {
		for _, kw := range t.keywords {
			if matches(lower, words, kw) {
				if locale == duration.LocaleZH {
					return t.zh
				}
				return t.en
			}
		}
	}
	if locale == duration.LocaleZH {
		return defaultZH
	}
	return defaultEN
}

func matches(lower, words, kw string) bool {
	if isASCII(kw) {
		return strings.Contains(words, " "+kw+" ")
	}
	return strings.Contains(lower, kw)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// StrategyByName resolves a configured strategy name.
func StrategyByName(name string) ResponseStrategy {
	if name == "fixed" {
		return FixedStrategy{Text: defaultEN}
	}
	return KeywordStrategy{}
}
