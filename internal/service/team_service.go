package service

import (
	"github.com/samber/lo"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/dto"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/repository"
	pkgErrors "github.com/derril-tech/ai-powered-project-management-tool/pkg/errors"
)

type TeamService interface {
	Create(req *dto.CreateTeamRequest) (*dto.TeamResponse, error)
	GetByID(id string) (*dto.TeamResponse, error)
	List(query *dto.TeamListQuery) ([]*dto.TeamResponse, int64, error)
	Update(id string, req *dto.UpdateTeamRequest) (*dto.TeamResponse, error)
	Delete(id string) error
}

type teamService struct {
	repo repository.TeamRepository
}

func NewTeamService(repo repository.TeamRepository) TeamService {
	return &teamService{repo: repo}
}

func (s *teamService) Create(req *dto.CreateTeamRequest) (*dto.TeamResponse, error) {
	// 检查团队名称是否已存在
	if err := s.ensureNameFree(req.Name); err != nil {
		return nil, err
	}

	settings, err := settingsJSON(req.Settings)
	if err != nil {
		return nil, err
	}

	team := &model.Team{
		Name:        req.Name,
		Description: req.Description,
		Settings:    settings,
	}
	if err := s.repo.Create(team); err != nil {
		return nil, err
	}
	return toTeamResponse(team), nil
}

// ensureNameFree 仅记录不存在时视为可用, 其他查询错误原样返回
func (s *teamService) ensureNameFree(name string) error {
	_, err := s.repo.FindByName(name)
	switch {
	case err == nil:
		return pkgErrors.New(pkgErrors.CodeConflict, "Team already exists")
	case pkgErrors.IsNotFound(err):
		return nil
	default:
		return err
	}
}

func (s *teamService) GetByID(id string) (*dto.TeamResponse, error) {
	team, err := s.repo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "Team")
	}
	return toTeamResponse(team), nil
}

func (s *teamService) List(query *dto.TeamListQuery) ([]*dto.TeamResponse, int64, error) {
	teams, total, err := s.repo.List(pageOf(&query.ListQuery))
	if err != nil {
		return nil, 0, err
	}
	return lo.Map(teams, func(t *model.Team, _ int) *dto.TeamResponse { return toTeamResponse(t) }), total, nil
}

func (s *teamService) Update(id string, req *dto.UpdateTeamRequest) (*dto.TeamResponse, error) {
	team, err := s.repo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "Team")
	}

	// 检查名称是否冲突
	if req.Name != nil && *req.Name != team.Name {
		if err := s.ensureNameFree(*req.Name); err != nil {
			return nil, err
		}
		team.Name = *req.Name
	}
	if req.Description != nil {
		team.Description = req.Description
	}
	if req.Settings != nil {
		settings, err := settingsJSON(req.Settings)
		if err != nil {
			return nil, err
		}
		team.Settings = settings
	}

	if err := s.repo.Update(team); err != nil {
		return nil, err
	}
	return toTeamResponse(team), nil
}

// Delete 仍有用户或项目引用时拒绝删除
func (s *teamService) Delete(id string) error {
	if _, err := s.repo.FindByID(id); err != nil {
		return notFound(err, "Team")
	}

	users, projects, err := s.repo.CountReferences(id)
	if err != nil {
		return err
	}
	if users > 0 || projects > 0 {
		return pkgErrors.New(pkgErrors.CodeConflict, "Team still has users or projects")
	}

	return notFound(s.repo.Delete(id), "Team")
}

func toTeamResponse(team *model.Team) *dto.TeamResponse {
	return &dto.TeamResponse{
		ID:          team.ID,
		Name:        team.Name,
		Description: team.Description,
		Settings:    rawSettings(team.Settings),
		CreatedAt:   team.CreatedAt,
		UpdatedAt:   team.UpdatedAt,
	}
}
