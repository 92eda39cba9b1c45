package persona

import "strings"

// Keywords are the substring lists behind the message heuristics.
// Matching is case-insensitive.
type Keywords struct {
	Medical         []string `yaml:"medical"`
	Emotional       []string `yaml:"emotional"`
	ChildInfo       []string `yaml:"child_info"`
	Personalization []string `yaml:"personalization"`
}

func defaultKeywords() Keywords {
	return Keywords{
		Medical: []string{
			"고열", "발열", "미열", "열이", "열나", "열감", "해열제",
			"기침", "콧물", "가래", "코막힘", "구토", "토했", "토해",
			"설사", "혈변", "발진", "두드러기", "경련", "호흡곤란", "숨쉬기",
			"진단", "처방", "항생제", "약을", "약 먹", "복용",
			"병원", "소아과", "응급", "증상", "통증", "아파", "아프",
			"감기", "독감", "폐렴", "중이염", "장염", "수족구", "탈수",
			"출혈", "화상", "다쳤", "골절", "예방접종",
			"fever", "cough", "vomit", "rash", "seizure", "diagnos", "prescri",
		},
		Emotional: []string{
			"우울", "불안", "스트레스", "지쳐", "지치", "힘들어", "힘들다", "힘든",
			"외로", "눈물", "울고 싶", "번아웃", "산후우울", "자책", "죄책감",
			"화가 나", "짜증", "무기력", "위로", "버거",
		},
		ChildInfo: []string{
			"몇 개월", "개월 수", "개월수", "몇 살", "나이가", "생일", "생년월일",
			"몸무게가", "체중이", "키가", "머리둘레가",
			"또래", "평균", "백분위", "성장곡선", "정상 범위", "발달 단계",
		},
		Personalization: []string{
			"수유", "모유", "분유", "이유식", "식단", "영양", "간식",
			"수면", "잠", "낮잠", "밤잠", "루틴",
			"성장", "키", "몸무게", "체중", "머리둘레", "발달",
			"배변", "기저귀", "설사", "변비",
		},
	}
}

// merge replaces every non-empty list of other into k.
func (k *Keywords) merge(other *Keywords) {
	if other == nil {
		return
	}
	if len(other.Medical) > 0 {
		k.Medical = other.Medical
	}
	if len(other.Emotional) > 0 {
		k.Emotional = other.Emotional
	}
	if len(other.ChildInfo) > 0 {
		k.ChildInfo = other.ChildInfo
	}
	if len(other.Personalization) > 0 {
		k.Personalization = other.Personalization
	}
}

func containsAny(message string, keywords []string) bool {
	if message == "" {
		return false
	}
	lower := strings.ToLower(message)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
