package wizard

import (
	"errors"
	"fmt"
	"sort"

	"bizdir_listing/internal/model"
)

// ==================== 步骤控制器 ====================

var (
	ErrStepInvalid    = errors.New("step has invalid fields")
	ErrLastStep       = errors.New("already at the last step")
	ErrFirstStep      = errors.New("already at the first step")
	ErrStepOutOfRange = errors.New("step index out of range")
	ErrJumpBlocked    = errors.New("an earlier step is not valid")
)

// ValidationError 步骤校验失败，Fields 逐字段给出原因
type ValidationError struct {
	Step   string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %s: %d invalid field(s)", e.Step, len(e.Fields))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrStepInvalid
}

// StepState 步骤及其当前有效性
type StepState struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Title string `json:"title"`
	Valid bool   `json:"valid"`
}

// Snapshot 控制器只读快照
type Snapshot struct {
	Step    int                    `json:"step"`
	StepID  string                 `json:"stepId"`
	Steps   []StepState            `json:"steps"`
	Data    *model.ListingFormData `json:"data"`
	Errors  []FieldError           `json:"errors"`
	Touched []string               `json:"touched"`
}

// Controller 多步表单状态机：当前步骤、累积数据、字段修改记录
// 非并发安全，由调用方串行化
type Controller struct {
	step    int
	steps   []Step
	data    *model.ListingFormData
	touched map[string]struct{}

	// 取消勾选的分支数据暂存，重新勾选时恢复
	parkedProduct *model.ProductData
	parkedService *model.ServiceData
}

// NewController 初始状态：第 0 步，数据为 initial 的副本（nil 表示新建）
func NewController(initial *model.ListingFormData) *Controller {
	data := model.NewListingFormData()
	if initial != nil {
		data = initial.Clone()
	}
	return &Controller{
		steps:   StepsFor(data.BusinessTypes()),
		data:    data,
		touched: map[string]struct{}{},
	}
}

// Step 当前步骤下标
func (c *Controller) Step() int { return c.step }

// CurrentStep 当前步骤定义
func (c *Controller) CurrentStep() Step { return c.steps[c.step] }

// Steps 当前步骤序列
func (c *Controller) Steps() []Step {
	out := make([]Step, len(c.steps))
	copy(out, c.steps)
	return out
}

// Data 表单数据副本
func (c *Controller) Data() *model.ListingFormData { return c.data.Clone() }

// Advance 当前步骤有效时前进一步
func (c *Controller) Advance() error {
	if c.step >= len(c.steps)-1 {
		return ErrLastStep
	}
	if errs := ValidateStep(c.steps[c.step], c.data); len(errs) > 0 {
		return &ValidationError{Step: c.steps[c.step].ID, Fields: errs}
	}
	c.step++
	return nil
}

// Retreat 后退一步，数据保持不变
func (c *Controller) Retreat() error {
	if c.step == 0 {
		return ErrFirstStep
	}
	c.step--
	return nil
}

// UpdateField 合并单个字段并返回所属步骤的最新错误，不会自动前进
// 离开第 0 步后不允许清空业务类型
func (c *Controller) UpdateField(path string, value interface{}) ([]FieldError, error) {
	stepID, err := StepOf(path)
	if err != nil {
		return nil, err
	}

	next := c.data.Clone()
	if err := SetField(next, path, value); err != nil {
		return nil, err
	}
	if path == PathBusinessTypes {
		if len(next.BusinessTypes()) == 0 && c.step > 0 {
			return nil, &ValidationError{
				Step:   StepBusinessType,
				Fields: []FieldError{{Path: PathBusinessTypes, Message: "请至少选择一种业务类型"}},
			}
		}
		c.carryBranches(next)
	}
	c.data = next
	c.touched[path] = struct{}{}

	if path == PathBusinessTypes {
		c.resequence()
	}

	for _, s := range c.steps {
		if s.ID == stepID {
			return ValidateStep(s, c.data), nil
		}
	}
	return nil, nil
}

// carryBranches 停用的分支暂存，重新启用的分支取回暂存数据
func (c *Controller) carryBranches(next *model.ListingFormData) {
	prevProduct, hadProduct := c.data.ProductData()
	prevService, hadService := c.data.ServiceData()
	nextProduct, hasProduct := next.ProductData()
	nextService, hasService := next.ServiceData()

	switch {
	case hadProduct && !hasProduct:
		cp := prevProduct.Clone()
		c.parkedProduct = &cp
	case !hadProduct && hasProduct && c.parkedProduct != nil:
		*nextProduct = c.parkedProduct.Clone()
		c.parkedProduct = nil
	}
	switch {
	case hadService && !hasService:
		cp := *prevService
		c.parkedService = &cp
	case !hadService && hasService && c.parkedService != nil:
		*nextService = *c.parkedService
		c.parkedService = nil
	}
}

// resequence 业务类型变化后重建步骤序列；当前步骤仍存在则停留在原步骤，否则收敛到范围内
func (c *Controller) resequence() {
	currentID := c.steps[c.step].ID
	c.steps = StepsFor(c.data.BusinessTypes())
	for i, s := range c.steps {
		if s.ID == currentID {
			c.step = i
			return
		}
	}
	if c.step >= len(c.steps) {
		c.step = len(c.steps) - 1
	}
}

// JumpTo 直接跳转，要求目标之前的所有步骤都有效
func (c *Controller) JumpTo(step int) error {
	if step < 0 || step >= len(c.steps) {
		return fmt.Errorf("%w: %d", ErrStepOutOfRange, step)
	}
	for i := 0; i < step; i++ {
		if errs := ValidateStep(c.steps[i], c.data); len(errs) > 0 {
			return fmt.Errorf("%w: %w", ErrJumpBlocked, &ValidationError{Step: c.steps[i].ID, Fields: errs})
		}
	}
	c.step = step
	return nil
}

// JumpToID 按步骤 ID 跳转
func (c *Controller) JumpToID(id string) error {
	for i, s := range c.steps {
		if s.ID == id {
			return c.JumpTo(i)
		}
	}
	return fmt.Errorf("%w: %s", ErrStepOutOfRange, id)
}

// Touched 本次会话修改过的路径，已排序
func (c *Controller) Touched() []string {
	out := make([]string, 0, len(c.touched))
	for p := range c.touched {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// TouchedSections 修改过的载荷分段
func (c *Controller) TouchedSections() map[string]bool {
	out := map[string]bool{}
	for p := range c.touched {
		if section, err := SectionOf(p); err == nil {
			out[section] = true
		}
	}
	return out
}

// ValidateAll 校验所有步骤，返回首个无效步骤及全部字段错误
func (c *Controller) ValidateAll() error {
	return c.validateSteps(func(Step) bool { return true })
}

// ValidateTouched 只校验包含已修改字段的步骤（编辑流程提交用）
// 修改过业务类型时，所有分支步骤都要校验
func (c *Controller) ValidateTouched() error {
	owning := map[string]bool{}
	for p := range c.touched {
		if id, err := StepOf(p); err == nil {
			owning[id] = true
		}
	}
	typesChanged := owning[StepBusinessType]
	return c.validateSteps(func(s Step) bool {
		return owning[s.ID] || (typesChanged && isBlockStep(s.ID))
	})
}

func (c *Controller) validateSteps(include func(Step) bool) error {
	var verr *ValidationError
	for _, s := range c.steps {
		if !include(s) {
			continue
		}
		errs := ValidateStep(s, c.data)
		if len(errs) == 0 {
			continue
		}
		if verr == nil {
			verr = &ValidationError{Step: s.ID}
		}
		verr.Fields = append(verr.Fields, errs...)
	}
	if verr != nil {
		return verr
	}
	return nil
}

// Snapshot 当前状态快照
func (c *Controller) Snapshot() Snapshot {
	states := make([]StepState, len(c.steps))
	for i, s := range c.steps {
		states[i] = StepState{
			Index: i,
			ID:    s.ID,
			Title: s.Title,
			Valid: len(ValidateStep(s, c.data)) == 0,
		}
	}
	errs := ValidateStep(c.steps[c.step], c.data)
	if errs == nil {
		errs = []FieldError{}
	}
	return Snapshot{
		Step:    c.step,
		StepID:  c.steps[c.step].ID,
		Steps:   states,
		Data:    c.data.Clone(),
		Errors:  errs,
		Touched: c.Touched(),
	}
}
