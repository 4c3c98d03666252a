package wizard

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"bizdir_listing/internal/model"
)

// ==================== 字段校验器 ====================
// 所有校验器接收 *string（nil 表示未定义），只返回 bool，不 panic、无副作用

// NoBound 长度校验不限制该侧
const NoBound = -1

var (
	phonePattern = regexp.MustCompile(`^\+?(\d{1,4}[ -]?)?(\(\d{1,5}\)[ -]?)?[0-9][0-9 -]*$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+$`)
	schemePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
)

const minPhoneDigits = 6

// IsNonEmpty 去除首尾空白后非空
func IsNonEmpty(v *string) bool {
	return v != nil && strings.TrimSpace(*v) != ""
}

// IsValidPhone 允许前导 +、可选括号区号、数字、空格和短横线
func IsValidPhone(v *string) bool {
	if v == nil {
		return false
	}
	s := strings.TrimSpace(*v)
	if !phonePattern.MatchString(s) {
		return false
	}
	digits := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= minPhoneDigits
}

// IsValidEmail local@domain，且域名部分至少包含一个点
func IsValidEmail(v *string) bool {
	if v == nil {
		return false
	}
	s := strings.TrimSpace(*v)
	if !emailPattern.MatchString(s) {
		return false
	}
	domain := s[strings.LastIndex(s, "@")+1:]
	dot := strings.Index(domain, ".")
	return dot > 0 && dot < len(domain)-1
}

// IsValidURL 无 scheme 时补 https:// 后能解析出主机名
func IsValidURL(v *string) bool {
	if v == nil {
		return false
	}
	s := strings.TrimSpace(*v)
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	u, err := url.Parse(NormalizeURL(s))
	if err != nil {
		return false
	}
	return u.Host != "" && u.Hostname() != ""
}

// NormalizeURL 无 scheme 时补 https://，提交载荷与校验共用同一规则
func NormalizeURL(s string) string {
	if s == "" || schemePrefix.MatchString(s) {
		return s
	}
	return "https://" + s
}

// IsValidLength 字符数在 [min, max] 闭区间内，NoBound 表示不限；未定义的值总是失败
func IsValidLength(v *string, min, max int) bool {
	if v == nil {
		return false
	}
	n := utf8.RuneCountInString(*v)
	if min != NoBound && n < min {
		return false
	}
	if max != NoBound && n > max {
		return false
	}
	return true
}

// IsValidRadius 正的十进制数（公里）
func IsValidRadius(v *string) bool {
	if v == nil {
		return false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*v), 64)
	return err == nil && f > 0
}

// IsValidPostcodeList 逗号分隔的邮编列表，每项非空、只含字母数字（允许内部空格）
func IsValidPostcodeList(v *string) bool {
	if !IsNonEmpty(v) {
		return false
	}
	for _, part := range strings.Split(*v, ",") {
		code := strings.TrimSpace(part)
		if code == "" {
			return false
		}
		for _, r := range code {
			if r == ' ' {
				continue
			}
			if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
				return false
			}
		}
	}
	return true
}

// AreaValueMatchesType 范围值与其声明类型匹配
func AreaValueMatchesType(areaType string, v *string) bool {
	switch areaType {
	case string(model.DeliveryAreaRadius):
		return IsValidRadius(v)
	case string(model.DeliveryAreaZone):
		return IsNonEmpty(v)
	case string(model.ServiceAreaPostcodes):
		return IsValidPostcodeList(v)
	}
	return false
}

// SplitPostcodes 拆分邮编展示字符串
func SplitPostcodes(v string) []string {
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if code := strings.TrimSpace(part); code != "" {
			out = append(out, code)
		}
	}
	return out
}

// JoinPostcodes 拼接为展示字符串
func JoinPostcodes(codes []string) string {
	return strings.Join(codes, ", ")
}
