package model

import "time"

// Position 职位类型（封闭枚举）。
type Position string

const (
	PositionFrontend  Position = "frontend"
	PositionBackend   Position = "backend"
	PositionFullstack Position = "fullstack"
)

// ValidPosition 校验职位类型是否在枚举范围内。
func ValidPosition(p Position) bool {
	switch p {
	case PositionFrontend, PositionBackend, PositionFullstack:
		return true
	}
	return false
}

// Gender 候选人性别（封闭枚举）。
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ValidGender 校验性别是否在枚举范围内。
func ValidGender(g Gender) bool {
	return g == GenderMale || g == GenderFemale
}

// ApplicationStatus 投递状态。
//
// 状态机只有一条边：applied -> cancelled_by_candidate，取消后不可逆。
type ApplicationStatus string

const (
	StatusApplied              ApplicationStatus = "applied"
	StatusCancelledByCandidate ApplicationStatus = "cancelled_by_candidate"
)

// 工作地点编码。整数代替文字：省空间、比对快，映射表本身是接口契约的一部分。
const (
	BasedInTokyo = 0
	BasedInOsaka = 1
)

// ValidBasedInCode 校验地点编码是否在 {0, 1} 内。
func ValidBasedInCode(code int) bool {
	return code == BasedInTokyo || code == BasedInOsaka
}

// Company 表示一家公司。
//
// OwnerID 上的唯一索引保证一个用户最多拥有一家公司。
type Company struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"uniqueIndex;not null" json:"owner_id"` // 所属用户 ID（唯一）
	Name      string    `gorm:"type:varchar(200);not null" json:"name"`
	Website   string    `gorm:"type:varchar(255)" json:"website,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Job 表示公司发布的一个职位。
type Job struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CompanyID   uint      `gorm:"index;not null" json:"company_id"` // 所属公司 ID
	Title       string    `gorm:"type:varchar(120);not null" json:"title"`
	Position    Position  `gorm:"type:varchar(16);not null" json:"position"`
	BasedInCode int       `gorm:"not null" json:"based_in_code"` // 0=tokyo, 1=osaka
	Description string    `gorm:"type:text;not null" json:"description"`
	Salary      int       `gorm:"not null" json:"salary"` // 单位：万日元
	CreatedAt   time.Time `json:"created_at"`
}

// Application 表示一条投递记录。
//
// (user_id, job_id) 上的联合唯一索引是系统里真正的一致性约束：
// 同一用户对同一职位最多一条记录，竞态下由存储层兜底，而不是只靠预检查。
// 取消后记录保留，同一对 (user, job) 不能再次投递。
type Application struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	UserID          uint              `gorm:"uniqueIndex:uq_application_user_job;not null" json:"user_id"`
	JobID           uint              `gorm:"uniqueIndex:uq_application_user_job;not null" json:"job_id"`
	Status          ApplicationStatus `gorm:"type:varchar(32);default:applied" json:"status"`
	ApplicationNote string            `gorm:"type:varchar(1000)" json:"application_note,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// CandidateProfile 候选人资料，以用户 ID 为主键的一对一扩展。
//
// 投递职位前必须先填写资料：资料就是候选人展示给雇主的信息。
type CandidateProfile struct {
	UserID   uint   `gorm:"primaryKey" json:"user_id"`
	FullName string `gorm:"type:varchar(80);not null" json:"full_name"`
	Age      int    `gorm:"not null" json:"age"` // 18-80
	Gender   Gender `gorm:"type:varchar(8);not null" json:"gender"`
	Phone    string `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Intro    string `gorm:"type:varchar(1000)" json:"intro,omitempty"`
}
