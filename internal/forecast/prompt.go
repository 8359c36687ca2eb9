package forecast

import (
	"fmt"
	"strings"
	"time"

	"github.com/i474232898/eagle-eye/internal/area"
	"github.com/i474232898/eagle-eye/internal/weather"
)

// RankCriterion describes what a rank means for demand.
type RankCriterion struct {
	Rank    Rank
	Meaning string
}

// RankCriteria is embedded in prompts, highest rank first.
var RankCriteria = []RankCriterion{
	{RankS, "大型イベント・連休・大型客船寄港などで需要が極めて高い"},
	{RankA, "イベントや週末が重なり需要が高い"},
	{RankB, "金曜・土曜・祝日やその前日などでやや需要が高い"},
	{RankC, "平日で特段の要因がなく通常水準"},
}

var slotLabels = []struct {
	key, label string
}{
	{"morning", "朝 (06-12時)"},
	{"daytime", "昼 (12-18時)"},
	{"night", "夜 (18-24時)"},
}

func writeRankTable(b *strings.Builder) {
	b.WriteString("ランク基準:\n")
	for _, c := range RankCriteria {
		fmt.Fprintf(b, "- %s: %s\n", c.Rank, c.Meaning)
	}
}

func dateList(dates []time.Time) string {
	parts := make([]string, 0, len(dates))
	for _, d := range dates {
		parts = append(parts, ISODate(d))
	}
	return strings.Join(parts, ", ")
}

// FactsPrompt asks for search-grounded local events over dates.
func FactsPrompt(a area.Area, dates []time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "あなたは%sの地域情報リサーチャーです。\n", a.Name)
	fmt.Fprintf(&b, "地域の特徴: %s\n", a.Feature)
	fmt.Fprintf(&b, "対象日: %s\n", dateList(dates))
	b.WriteString("各日について、イベント・祭り・スポーツ興行・コンサート・客船寄港・交通規制・学校行事など、人の流れに影響する事実を検索して日付ごとに列挙してください。")
	b.WriteString("確認できない場合は「特記事項なし」と書いてください。推測は含めないでください。\n")
	return b.String()
}

// FactsStructurePrompt turns free-text facts into a date → facts object.
func FactsStructurePrompt(a area.Area, dates []time.Time, facts string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "以下は%sに関する調査メモです。\n---\n%s\n---\n", a.Name, facts)
	fmt.Fprintf(&b, "対象日 (%s) ごとに事実を要約し、キーを YYYY-MM-DD、値を要約文字列とする JSON オブジェクトのみを出力してください。\n", dateList(dates))
	b.WriteString("情報がない日は \"特記事項なし\" としてください。\n")
	return b.String()
}

// LongTermPrompt asks for a seasonal trend narrative for [from, to].
func LongTermPrompt(a area.Area, from, to time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "あなたは%sの観光・商業の需要アナリストです。\n", a.Name)
	fmt.Fprintf(&b, "地域の特徴: %s\n", a.Feature)
	fmt.Fprintf(&b, "%s から %s までの期間について、季節行事・長期休暇・観光シーズンなど需要の長期的な傾向を300字以内で説明してください。\n", DisplayDate(from), DisplayDate(to))
	b.WriteString("見出しや記号は使わず平文で書いてください。\n")
	return b.String()
}

func writeSlot(b *strings.Builder, label string, ts weather.TimeSlotSummary) {
	fmt.Fprintf(b, "- %s: %s, 気温 %s℃, 湿度 %s%%, 降水確率 %s%%\n",
		label, ts.Condition.Label(), ts.Temperature, ts.Humidity, ts.PrecipProb)
}

// DayPrompt asks for the structured forecast of one day. The reconciled
// weather is given as fixed input; the oracle only reasons about demand.
func DayPrompt(a area.Area, s weather.DailyWeatherSummary, facts string, base Rank) string {
	var b strings.Builder
	fmt.Fprintf(&b, "あなたは%sの需要予測コンサルタントです。\n", a.Name)
	fmt.Fprintf(&b, "対象日: %s\n", DisplayDate(s.Date))
	fmt.Fprintf(&b, "地域の特徴: %s\n\n", a.Feature)

	b.WriteString("天気 (確定値、変更しないこと):\n")
	fmt.Fprintf(&b, "- 終日: %s, 最高 %s℃, 最低 %s℃, 降水確率 %s%%\n", s.Condition.Label(), s.High, s.Low, s.PrecipProb)
	if s.HasWarning() {
		fmt.Fprintf(&b, "- 警報・注意報: %s\n", s.Warning)
	}
	slots := []weather.TimeSlotSummary{s.Morning, s.Daytime, s.Night}
	for i, sl := range slotLabels {
		writeSlot(&b, sl.label, slots[i])
	}

	if strings.TrimSpace(facts) == "" {
		facts = "特記事項なし"
	}
	fmt.Fprintf(&b, "\n地域の出来事:\n%s\n\n", facts)

	writeRankTable(&b)
	fmt.Fprintf(&b, "曜日・祝日のみから見た基準ランクは %s です。出来事や天気を踏まえて調整してください。\n\n", base)

	b.WriteString("以下の形式の JSON オブジェクトのみを出力してください。\n")
	b.WriteString(`{"rank":"S|A|B|C","daily_schedule_and_impact":"一日の流れと需要への影響","timeline":{`)
	for i, sl := range slotLabels {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `"%s":{"advice":{`, sl.key)
		for j, job := range Jobs {
			if j > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, `"%s":"..."`, job)
		}
		b.WriteString("}}")
	}
	b.WriteString(`},"advice":{`)
	for j, job := range Jobs {
		if j > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `"%s":{"advice":"...","peak_time":"HH:MM-HH:MM"}`, job)
	}
	b.WriteString("}}\n")

	b.WriteString("職業: ")
	labels := make([]string, 0, len(Jobs))
	for _, job := range Jobs {
		labels = append(labels, fmt.Sprintf("%s (%s)", job, job.Label()))
	}
	b.WriteString(strings.Join(labels, ", "))
	b.WriteString("\n")
	return b.String()
}
