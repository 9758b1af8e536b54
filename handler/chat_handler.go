package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"tango-chat-app/apperror"
	"tango-chat-app/dto/req"
	"tango-chat-app/dto/res"
	"tango-chat-app/usecase"
)

// ChatHandler serves the read-only REST view of the same data the websocket
// actions expose.
type ChatHandler struct {
	usecase.ThreadUsecase
	usecase.MessageUsecase
	usecase.MembershipUsecase
	*logrus.Logger
}

func NewChatHandler(threads usecase.ThreadUsecase, messages usecase.MessageUsecase, memberships usecase.MembershipUsecase, logger *logrus.Logger) *ChatHandler {
	return &ChatHandler{
		ThreadUsecase:     threads,
		MessageUsecase:    messages,
		MembershipUsecase: memberships,
		Logger:            logger,
	}
}

// GetAllChat godoc
// @Summary List the caller's chat threads
// @Tags Chat
// @Produce json
// @Success 200 {object} res.CommonResponse[[]res.ChatResponse]
// @Router /api/v1/chats [get]
func (handler *ChatHandler) GetAllChat(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	chatResponses, err := handler.ThreadUsecase.GetChatThreads(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[[]res.ChatResponse]{
		Message:    "Successfully to Get All Chats",
		StatusCode: fiber.StatusOK,
		Data:       chatResponses,
	})
}

// GetMessagesBySlug godoc
// @Summary Page through a room's messages, newest first
// @Tags Chat
// @Produce json
// @Param slug path string true "Room slug"
// @Param before query string false "RFC3339 cursor"
// @Param limit query int false "Page size"
// @Router /api/v1/chats/{slug}/messages [get]
func (handler *ChatHandler) GetMessagesBySlug(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	request := &req.GetMessagesRequest{
		RoomSlug: c.Params("slug"),
		Limit:    c.QueryInt("limit", 0),
	}
	if before := c.Query("before"); before != "" {
		at, err := time.Parse(time.RFC3339Nano, before)
		if err != nil {
			return apperror.Validation("before must be an RFC3339 timestamp")
		}
		request.Before = &at
	}

	messages, err := handler.MessageUsecase.GetMessages(c.UserContext(), userID, request)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[[]res.MessageResponse]{
		Message:    "Successfully to Get Messages",
		StatusCode: fiber.StatusOK,
		Data:       messages,
	})
}

func (handler *ChatHandler) GetMembers(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	members, err := handler.MembershipUsecase.GetMembers(c.UserContext(), userID, c.Params("slug"))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[res.MembersResponse]{
		Message:    "Successfully to Get Members",
		StatusCode: fiber.StatusOK,
		Data:       members,
	})
}
